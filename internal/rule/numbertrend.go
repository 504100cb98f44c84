package rule

// Trend polarities.
const (
	// PolarityHeat counts the unbroken streak of occurrence of a tag.
	PolarityHeat = "heat"
	// PolarityOmission counts the unbroken streak of non-occurrence.
	PolarityOmission = "omission"
)

// NumberTrend generalizes Dragon with a polarity switch (occurrence vs
// omission streaks) and AND/OR aggregation across the monitored tags. With
// FullMatch every tag must cross the threshold and the generated targets are
// unioned; otherwise the first crossing tag fires alone.
type NumberTrend struct {
	Tags         []string `json:"tags"`
	Threshold    int      `json:"threshold"`
	Polarity     string   `json:"polarity,omitempty"`
	FullMatch    bool     `json:"full_match,omitempty"`
	Mode         string   `json:"mode,omitempty"`
	FixedTargets []string `json:"fixed_targets,omitempty"`
	continueBet
	dirty
}

func (r *NumberTrend) Kind() string { return KindNumberTrend }

func (r *NumberTrend) Next(env *Env) []string {
	if targets, ok := r.locked(); ok {
		r.mark()
		return targets
	}
	if len(r.Tags) == 0 || r.Threshold <= 0 {
		return nil
	}

	var fired []string
	if r.FullMatch {
		for _, tag := range r.Tags {
			if r.count(env, tag) < r.Threshold {
				return nil
			}
		}
		fired = r.Tags
	} else {
		for _, tag := range r.Tags {
			if r.count(env, tag) >= r.Threshold {
				fired = []string{tag}
				break
			}
		}
	}
	if len(fired) == 0 {
		return nil
	}

	targets := unionTargets(fired, r.Mode, env.Game, r.FixedTargets)
	if len(targets) == 0 {
		return nil
	}
	if r.arm(targets) {
		r.mark()
	}
	return targets
}

func (r *NumberTrend) count(env *Env, tag string) int {
	if r.Polarity == PolarityOmission {
		n := 0
		for i := range env.History {
			if env.tags(i).Has(tag) {
				break
			}
			n++
		}
		return n
	}
	return streak(env, tag)
}

// unionTargets merges the generated targets of several fired tags,
// preserving first-seen order.
func unionTargets(tags []string, mode, game string, fixed []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, tag := range tags {
		for _, t := range generate(tag, mode, game, fixed) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
