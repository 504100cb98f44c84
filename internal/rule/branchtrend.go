package rule

// BranchTrend phases.
const (
	branchWatching = "" // scanning the monitor pattern
	branchInitial  = "initial"
	branchRunning  = "branch"
)

// BranchTrend places a single initial bet when its monitor pattern matches,
// then forks into the win or loss branch sequence depending on the initial
// bet's realized outcome, stepping one code per round until the branch is
// exhausted or an early stop-on-win fires.
type BranchTrend struct {
	codeTable
	Monitor    string `json:"monitor"`
	Initial    string `json:"initial"` // single code, "0" or "1"
	WinBranch  string `json:"win_branch,omitempty"`
	LossBranch string `json:"loss_branch,omitempty"`
	StopOnWin  bool   `json:"stop_on_win,omitempty"`

	Phase       string   `json:"phase,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	Step        int      `json:"step,omitempty"`
	LastTargets []string `json:"last_targets,omitempty"`
	dirty
}

func (r *BranchTrend) Kind() string { return KindBranchTrend }

func (r *BranchTrend) Next(env *Env) []string {
	switch r.Phase {
	case branchInitial:
		// The initial bet's outcome is now known; pick the branch.
		branch := r.LossBranch
		if env.won(r.LastTargets) {
			branch = r.WinBranch
		}
		if branch == "" {
			r.reset()
			break // nothing to replay, rescan this round
		}
		r.Phase = branchRunning
		r.Branch = branch
		r.Step = 0
		return r.step()
	case branchRunning:
		if r.StopOnWin && env.won(r.LastTargets) {
			r.reset()
			break
		}
		if r.Step >= len(r.Branch) {
			r.reset()
			break
		}
		return r.step()
	}

	if r.Monitor == "" || r.Initial == "" {
		return nil
	}
	if !r.matchPattern(env, r.Monitor) {
		return nil
	}
	targets := r.targets(r.Initial[0])
	if len(targets) == 0 {
		return nil
	}
	r.Phase = branchInitial
	r.LastTargets = targets
	r.mark()
	return targets
}

func (r *BranchTrend) step() []string {
	targets := r.targets(r.Branch[r.Step])
	r.Step++
	r.LastTargets = targets
	r.mark()
	if len(targets) == 0 {
		r.reset()
		return nil
	}
	return targets
}

func (r *BranchTrend) reset() {
	r.Phase = branchWatching
	r.Branch = ""
	r.Step = 0
	r.LastTargets = nil
	r.mark()
}
