// Package odds implements the stake-progression automaton. The persisted
// state document holds an ordered multiplier sequence and the current index;
// settlement advances or resets the index depending on the outcome.
package odds

import (
	"encoding/json"
	"fmt"
)

// Odds kinds.
const (
	// KindFlat always stakes multiplier 1.
	KindFlat = "flat"
	// KindSequence walks a configured multiplier sequence.
	KindSequence = "sequence"
)

// Progress modes: which outcome advances the index. The opposite outcome
// resets it to zero.
const (
	AdvanceOnLoss = "on_loss" // martingale style
	AdvanceOnWin  = "on_win"  // anti-martingale style
)

// Odds yields the stake multiplier for the next bet. Advance is invoked
// only by settlement.
type Odds interface {
	Kind() string
	Multiplier() float64
	Advance(won bool)
	Dirty() bool
}

// Decode builds the progression automaton for a persisted state document.
func Decode(kind string, state json.RawMessage) (Odds, error) {
	switch kind {
	case KindFlat:
		return &Flat{}, nil
	case KindSequence:
		s := &Sequence{}
		if len(state) == 0 {
			return nil, fmt.Errorf("odds %s: empty state document", kind)
		}
		if err := json.Unmarshal(state, s); err != nil {
			return nil, fmt.Errorf("odds %s: decode state: %w", kind, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown odds kind %q", kind)
	}
}

// Encode serializes a progression's state document for persistence.
func Encode(o Odds) (json.RawMessage, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("odds %s: encode state: %w", o.Kind(), err)
	}
	return raw, nil
}

// Flat is the stateless unit progression.
type Flat struct{}

func (f *Flat) Kind() string        { return KindFlat }
func (f *Flat) Multiplier() float64 { return 1 }
func (f *Flat) Advance(bool)        {}
func (f *Flat) Dirty() bool         { return false }

// Sequence walks its Values by Index. A non-positive multiplier is clamped
// to 1; the index wraps to zero past the end of the sequence.
type Sequence struct {
	Values []float64 `json:"values"`
	Index  int       `json:"index"`
	Mode   string    `json:"mode,omitempty"`

	changed bool
}

func (s *Sequence) Kind() string { return KindSequence }
func (s *Sequence) Dirty() bool  { return s.changed }

func (s *Sequence) Multiplier() float64 {
	if len(s.Values) == 0 {
		return 1
	}
	if s.Index < 0 || s.Index >= len(s.Values) {
		return 1
	}
	if v := s.Values[s.Index]; v > 0 {
		return v
	}
	return 1
}

// Advance moves the index after a settled outcome: the qualifying outcome
// steps forward (wrapping to zero past the end), the opposite resets to
// zero.
func (s *Sequence) Advance(won bool) {
	if len(s.Values) == 0 {
		return
	}
	qualifies := won == (s.Mode == AdvanceOnWin)
	if qualifies {
		s.Index++
		if s.Index >= len(s.Values) {
			s.Index = 0
		}
	} else {
		s.Index = 0
	}
	s.changed = true
}
