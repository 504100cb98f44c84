// Package model defines the data models for the lottery betting engine.
package model

import (
	"encoding/json"
	"time"
)

// LotteryRecord is one announced round result. Immutable once created.
type LotteryRecord struct {
	RoundID  string    `db:"round_id"`
	OpenedAt time.Time `db:"opened_at"`
	Result   string    `db:"result"`
}

// Scheme is a user's configured combination of a draw rule, a progression
// rule and risk limits, bound to one chat group. RuleState and OddsState are
// opaque documents whose shape is selected by RuleKind/OddsKind; they carry
// both configuration and live automaton state so that automaton progress
// survives restarts.
type Scheme struct {
	ID         string          `db:"id"`
	UserID     int64           `db:"user_id"`
	GroupID    int64           `db:"group_id"`
	Name       string          `db:"name"`
	GameType   string          `db:"game_type"`
	PlayMode   string          `db:"play_mode"`
	RuleKind   string          `db:"rule_kind"`
	OddsKind   string          `db:"odds_kind"`
	RuleState  json.RawMessage `db:"rule_state"`
	OddsState  json.RawMessage `db:"odds_state"`
	Enabled    bool            `db:"enabled"`
	StopProfit float64         `db:"stop_profit"`
	StopLoss   float64         `db:"stop_loss"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// Play modes for a scheme.
const (
	PlayModeLive  = "live"  // orders are sent through the transport
	PlayModeTrial = "trial" // orders are recorded only
)

// BetOrder is a single wager placed for one round. Created Pending or
// Confirmed by the orchestrator; terminally mutated exactly once into
// Settled (or Failed when the send failed) by settlement.
type BetOrder struct {
	ID           string     `db:"id"`
	UserID       int64      `db:"user_id"`
	SchemeID     string     `db:"scheme_id"`
	GroupID      int64      `db:"group_id"`
	RoundID      string     `db:"round_id"`
	GameType     string     `db:"game_type"`
	Targets      []string   `db:"targets"`
	Amount       float64    `db:"amount"`
	Status       string     `db:"status"`
	OpenResult   string     `db:"open_result"`
	Payout       float64    `db:"payout"`
	Profit       float64    `db:"profit"`
	IsWin        bool       `db:"is_win"`
	IsSimulation bool       `db:"is_simulation"`
	CreatedAt    time.Time  `db:"created_at"`
	SettledAt    *time.Time `db:"settled_at"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderSettled   = "settled"
	OrderFailed    = "failed"
	OrderCancelled = "cancelled"
)

// UserAggregate holds a user's running profit/turnover, split into live and
// simulated buckets. Mutated only by settlement.
type UserAggregate struct {
	UserID        int64   `db:"user_id"`
	Profit        float64 `db:"profit"`
	Turnover      float64 `db:"turnover"`
	TrialProfit   float64 `db:"trial_profit"`
	TrialTurnover float64 `db:"trial_turnover"`
}

// SchemeAggregate holds a scheme's running profit/turnover, split like
// UserAggregate.
type SchemeAggregate struct {
	SchemeID      string  `db:"scheme_id"`
	Profit        float64 `db:"profit"`
	Turnover      float64 `db:"turnover"`
	TrialProfit   float64 `db:"trial_profit"`
	TrialTurnover float64 `db:"trial_turnover"`
}
