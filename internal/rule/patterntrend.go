package rule

// PatternStrategy is one independent monitor/bet pattern pair inside a
// PatternTrend rule, with its live execution state.
type PatternStrategy struct {
	Monitor     string   `json:"monitor"`
	Bets        string   `json:"bets"`
	StopOnWin   bool     `json:"stop_on_win,omitempty"`
	Executing   bool     `json:"executing,omitempty"`
	Step        int      `json:"step,omitempty"`
	LastTargets []string `json:"last_targets,omitempty"`
}

func (s *PatternStrategy) reset() {
	s.Executing = false
	s.Step = 0
	s.LastTargets = nil
}

// PatternTrend defines the 0/1 codes by semantic aliases and holds a list of
// strategies. A strategy triggers when the most recent results, translated
// to codes and read most-recent-first, equal its monitor pattern exactly; it
// then steps through its bet pattern one code per round. At most one
// strategy executes at a time: while one is executing no other strategy is
// scanned for a trigger.
type PatternTrend struct {
	codeTable
	Strategies []*PatternStrategy `json:"strategies"`
	dirty
}

func (r *PatternTrend) Kind() string { return KindPatternTrend }

func (r *PatternTrend) Next(env *Env) []string {
	if len(r.Strategies) == 0 {
		return nil
	}

	if s := r.executing(); s != nil {
		// Judge the previous bet before stepping on.
		if s.StopOnWin && env.won(s.LastTargets) {
			s.reset()
			r.mark()
		} else if s.Step >= len(s.Bets) {
			s.reset()
			r.mark()
		} else {
			return r.step(s)
		}
	}

	// Idle: scan strategies in configured order, first trigger wins.
	for _, s := range r.Strategies {
		if s.Monitor == "" || s.Bets == "" {
			continue
		}
		if !r.matchPattern(env, s.Monitor) {
			continue
		}
		s.Executing = true
		s.Step = 0
		return r.step(s)
	}
	return nil
}

// step emits the current bet code of an executing strategy and advances it.
func (r *PatternTrend) step(s *PatternStrategy) []string {
	targets := r.targets(s.Bets[s.Step])
	s.Step++
	s.LastTargets = targets
	r.mark()
	if len(targets) == 0 {
		// Misconfigured alias; stand down rather than looping forever.
		s.reset()
		return nil
	}
	return targets
}

// executing returns the strategy currently in the executing phase, if any.
func (r *PatternTrend) executing() *PatternStrategy {
	for _, s := range r.Strategies {
		if s.Executing {
			return s
		}
	}
	return nil
}
