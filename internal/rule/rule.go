// Package rule implements the draw-rule automatons that decide what to bet.
// Each rule kind is one implementation of the Rule interface; the persisted
// rule state document doubles as configuration, selected by its kind
// discriminant through Decode. A rule that cannot act (missing config, short
// history) returns no targets, which is a normal outcome, not an error.
package rule

import (
	"encoding/json"
	"fmt"
	"strings"

	"lottery-bet-bot/internal/model"
	"lottery-bet-bot/internal/tagger"
)

// Rule kinds.
const (
	KindFixed        = "fixed"
	KindFollowLast   = "follow_last"
	KindDragon       = "dragon"
	KindNumberTrend  = "number_trend"
	KindPatternTrend = "pattern_trend"
	KindBranchTrend  = "branch_trend"
	KindResultFollow = "result_follow"
)

// Env is the read-only view a rule decides against.
type Env struct {
	Game    string                // tagger game variant
	History []model.LotteryRecord // most-recent-first
}

// tags returns the tag set of the history entry at offset (0 = most recent),
// or nil when the history is too short.
func (e *Env) tags(offset int) tagger.Set {
	if offset >= len(e.History) {
		return nil
	}
	return tagger.Tags(e.History[offset].Result, e.Game)
}

// won reports whether any of the given targets matched the most recent
// result. Used by sequence rules to judge their previous bet.
func (e *Env) won(targets []string) bool {
	if len(e.History) == 0 {
		return false
	}
	for _, t := range targets {
		if tagger.Match(t, e.History[0].Result, e.Game) {
			return true
		}
	}
	return false
}

// Rule decides the bet targets for the upcoming round. Next may mutate the
// receiver's persisted state; Dirty reports whether it did, so the caller
// knows to re-encode and persist the document.
type Rule interface {
	Kind() string
	Next(env *Env) []string
	Dirty() bool
}

// dirty is embedded by stateful rules to track pending persistence.
type dirty struct {
	changed bool
}

func (d *dirty) mark()       { d.changed = true }
func (d *dirty) Dirty() bool { return d.changed }

// Decode builds the rule automaton for a persisted state document.
func Decode(kind string, state json.RawMessage) (Rule, error) {
	var r Rule
	switch kind {
	case KindFixed:
		r = &Fixed{}
	case KindFollowLast:
		r = &FollowLast{}
	case KindDragon:
		r = &Dragon{}
	case KindNumberTrend:
		r = &NumberTrend{}
	case KindPatternTrend:
		r = &PatternTrend{}
	case KindBranchTrend:
		r = &BranchTrend{}
	case KindResultFollow:
		r = &ResultFollow{}
	default:
		return nil, fmt.Errorf("unknown rule kind %q", kind)
	}
	if len(state) == 0 {
		return nil, fmt.Errorf("rule %s: empty state document", kind)
	}
	if err := json.Unmarshal(state, r); err != nil {
		return nil, fmt.Errorf("rule %s: decode state: %w", kind, err)
	}
	return r, nil
}

// Encode serializes a rule's state document for persistence.
func Encode(r Rule) (json.RawMessage, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("rule %s: encode state: %w", r.Kind(), err)
	}
	return raw, nil
}

// Betting modes for the target generator.
const (
	ModeFollow  = "follow"
	ModeReverse = "reverse"
	ModeFixed   = "fixed"
)

// generate turns a triggering tag into bet targets under the betting mode.
// Follow bets the tag itself, Reverse its semantic opposite (or the digit
// complement), Fixed a configured literal list regardless of the tag.
func generate(tag, mode, game string, fixed []string) []string {
	switch mode {
	case ModeReverse:
		return tagger.Opposite(tag, game)
	case ModeFixed:
		if len(fixed) == 0 {
			return nil
		}
		out := make([]string, len(fixed))
		copy(out, fixed)
		return out
	default:
		if tag == "" {
			return nil
		}
		return []string{tag}
	}
}

// Trigger cadences for streak-style rules.
const (
	// TriggerEvery re-evaluates the rule fresh on every round.
	TriggerEvery = "every"
	// TriggerContinue locks onto the triggering bet and repeats it for a
	// configured number of further rounds.
	TriggerContinue = "continue"
)

// continueBet is the shared lock-on wrapper. While Remaining is positive the
// rule repeats LockTargets instead of re-evaluating, decrementing each
// round and releasing the lock at zero.
type continueBet struct {
	Trigger     string   `json:"trigger,omitempty"`
	LockRounds  int      `json:"lock_rounds,omitempty"`
	LockTargets []string `json:"lock_targets,omitempty"`
	Remaining   int      `json:"remaining,omitempty"`
}

// locked returns the repeated targets while the lock is held, advancing the
// counter. ok is false once the lock is free.
func (c *continueBet) locked() (targets []string, ok bool) {
	if c.Remaining <= 0 {
		return nil, false
	}
	targets = c.LockTargets
	c.Remaining--
	if c.Remaining == 0 {
		c.LockTargets = nil
	}
	return targets, true
}

// arm engages the lock after a trigger, when configured to.
func (c *continueBet) arm(targets []string) bool {
	if c.Trigger != TriggerContinue || c.LockRounds <= 0 {
		return false
	}
	c.LockTargets = targets
	c.Remaining = c.LockRounds
	return true
}

// splitAlias parses a comma-separated semantic alias ("big" or "small,odd")
// into its tag list.
func splitAlias(alias string) []string {
	parts := strings.Split(alias, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// codeTable is the shared 0/1 alias definition used by the sequence rules.
// Code 0 is checked before code 1; an overlapping alias configuration
// resolves first-match-wins.
type codeTable struct {
	ZeroAlias string `json:"zero"`
	OneAlias  string `json:"one"`
}

// translate maps one result to its code. ok is false when neither alias
// matches, which makes any pattern containing that round unmatched.
func (t *codeTable) translate(result, game string) (byte, bool) {
	set := tagger.Tags(result, game)
	if set.HasAll(splitAlias(t.ZeroAlias)) {
		return '0', true
	}
	if set.HasAll(splitAlias(t.OneAlias)) {
		return '1', true
	}
	return 0, false
}

// targets returns the bet targets for a code, i.e. the alias tag list.
func (t *codeTable) targets(code byte) []string {
	switch code {
	case '0':
		return splitAlias(t.ZeroAlias)
	case '1':
		return splitAlias(t.OneAlias)
	}
	return nil
}

// matchPattern reports whether the most recent len(pattern) results,
// translated through the table and read most-recent-first, equal pattern
// exactly.
func (t *codeTable) matchPattern(env *Env, pattern string) bool {
	if pattern == "" || len(env.History) < len(pattern) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		code, ok := t.translate(env.History[i].Result, env.Game)
		if !ok || code != pattern[i] {
			return false
		}
	}
	return true
}
