package rule

// Fixed always bets a statically configured target list. No state.
type Fixed struct {
	Targets []string `json:"targets"`
}

func (r *Fixed) Kind() string { return KindFixed }
func (r *Fixed) Dirty() bool  { return false }

func (r *Fixed) Next(env *Env) []string {
	if len(r.Targets) == 0 {
		return nil
	}
	out := make([]string, len(r.Targets))
	copy(out, r.Targets)
	return out
}
