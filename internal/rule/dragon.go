package rule

// Dragon fires when a monitored tag's current unbroken streak across the
// most recent results reaches the threshold. Mode decides the side: follow
// rides the dragon, reverse slays it. Supports the continue-bet lock.
type Dragon struct {
	Tags         []string `json:"tags"`
	Threshold    int      `json:"threshold"`
	Mode         string   `json:"mode,omitempty"`
	FixedTargets []string `json:"fixed_targets,omitempty"`
	continueBet
	dirty
}

func (r *Dragon) Kind() string { return KindDragon }

func (r *Dragon) Next(env *Env) []string {
	if targets, ok := r.locked(); ok {
		r.mark()
		return targets
	}
	if len(r.Tags) == 0 || r.Threshold <= 0 {
		return nil
	}

	for _, tag := range r.Tags {
		if streak(env, tag) < r.Threshold {
			continue
		}
		targets := generate(tag, r.Mode, env.Game, r.FixedTargets)
		if len(targets) == 0 {
			return nil
		}
		if r.arm(targets) {
			r.mark()
		}
		return targets
	}
	return nil
}

// streak counts the unbroken run of the tag starting from the most recent
// record.
func streak(env *Env, tag string) int {
	n := 0
	for i := range env.History {
		if !env.tags(i).Has(tag) {
			break
		}
		n++
	}
	return n
}
