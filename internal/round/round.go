// Package round holds the per-group round context: the classification of
// inbound game messages and the ordered history of announced results.
package round

import (
	"regexp"
	"time"

	"lottery-bet-bot/internal/model"
)

// EventKind is the outcome of classifying one raw message.
type EventKind int

const (
	// Unrecognized messages carry no round information and are dropped.
	Unrecognized EventKind = iota
	// RoundOpened means betting is open for the carried round id.
	RoundOpened
	// ResultAnnounced means the carried round has a result.
	ResultAnnounced
)

// Event is a classified inbound message.
type Event struct {
	Kind    EventKind
	RoundID string
	Result  string
}

// Message forms announced by the game channel. The round id is the 期号
// (issue number); results are the raw draw string.
var (
	openRe   = regexp.MustCompile(`第\s*([0-9A-Za-z-]+)\s*期[^0-9]*开始投注`)
	resultRe = regexp.MustCompile(`第\s*([0-9A-Za-z-]+)\s*期[^0-9]*开奖结果[:：]\s*(\S+)`)
)

// Classify parses one raw message. It is stateless; context state changes
// only through Open and Announce.
func Classify(raw string) Event {
	if m := resultRe.FindStringSubmatch(raw); m != nil {
		return Event{Kind: ResultAnnounced, RoundID: m[1], Result: m[2]}
	}
	if m := openRe.FindStringSubmatch(raw); m != nil {
		return Event{Kind: RoundOpened, RoundID: m[1]}
	}
	return Event{Kind: Unrecognized}
}

// Phase of the group's round cycle.
type Phase int

const (
	// Selling means bets may be placed for the current round.
	Selling Phase = iota
	// Settling means the last announced result is the freshest state.
	Settling
)

// Context is the per-group round state. One instance per chat group, shared
// by every user watching that group. Calls are not internally synchronized;
// the engine serializes all processing for one group (see engine package).
type Context struct {
	GroupID        int64
	CurrentRoundID string

	phase   Phase
	history []model.LotteryRecord // most-recent-first
	cap     int
}

// NewContext creates a context keeping at most historyCap records.
func NewContext(groupID int64, historyCap int) *Context {
	if historyCap <= 0 {
		historyCap = 200
	}
	return &Context{GroupID: groupID, cap: historyCap}
}

// Open records that betting opened for roundID. A re-delivered open for the
// round already current or already announced is refused and the context is
// unchanged.
func (c *Context) Open(roundID string) bool {
	if roundID == c.CurrentRoundID {
		return false
	}
	for _, rec := range c.history {
		if rec.RoundID == roundID {
			return false
		}
	}
	c.CurrentRoundID = roundID
	c.phase = Selling
	return true
}

// Announce appends the result for roundID to the front of the history.
// A round id never repeats: a duplicate announcement is refused and the
// context is unchanged.
func (c *Context) Announce(roundID, result string) bool {
	for _, rec := range c.history {
		if rec.RoundID == roundID {
			return false
		}
	}
	c.history = append([]model.LotteryRecord{{
		RoundID:  roundID,
		OpenedAt: time.Now(),
		Result:   result,
	}}, c.history...)
	if len(c.history) > c.cap {
		c.history = c.history[:c.cap]
	}
	c.CurrentRoundID = roundID
	c.phase = Settling
	return true
}

// Phase returns the current round phase.
func (c *Context) Phase() Phase {
	return c.phase
}

// History returns the result history, most-recent-first. The returned slice
// is a copy.
func (c *Context) History() []model.LotteryRecord {
	out := make([]model.LotteryRecord, len(c.history))
	copy(out, c.history)
	return out
}

// Len returns the number of recorded results.
func (c *Context) Len() int {
	return len(c.history)
}
