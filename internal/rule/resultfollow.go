package rule

// ResultFollow is the simplest sequence trigger: the single most recent
// result translates to code 0 or 1 and, when idle, starts the sequence
// configured for that code, stepping one code per round with the same
// stop-on-win and exhaustion semantics as the other sequence rules.
type ResultFollow struct {
	codeTable
	SeqOnZero string `json:"on_zero,omitempty"`
	SeqOnOne  string `json:"on_one,omitempty"`
	StopOnWin bool   `json:"stop_on_win,omitempty"`

	Active      string   `json:"active,omitempty"`
	Step        int      `json:"step,omitempty"`
	LastTargets []string `json:"last_targets,omitempty"`
	dirty
}

func (r *ResultFollow) Kind() string { return KindResultFollow }

func (r *ResultFollow) Next(env *Env) []string {
	if r.Active != "" {
		if r.StopOnWin && env.won(r.LastTargets) {
			r.reset()
		} else if r.Step >= len(r.Active) {
			r.reset()
		} else {
			return r.step()
		}
	}

	if len(env.History) == 0 {
		return nil
	}
	code, ok := r.translate(env.History[0].Result, env.Game)
	if !ok {
		return nil
	}
	seq := r.SeqOnZero
	if code == '1' {
		seq = r.SeqOnOne
	}
	if seq == "" {
		return nil
	}
	r.Active = seq
	r.Step = 0
	return r.step()
}

func (r *ResultFollow) step() []string {
	targets := r.targets(r.Active[r.Step])
	r.Step++
	r.LastTargets = targets
	r.mark()
	if len(targets) == 0 {
		r.reset()
		return nil
	}
	return targets
}

func (r *ResultFollow) reset() {
	r.Active = ""
	r.Step = 0
	r.LastTargets = nil
	r.mark()
}
