// Package notify defines the fire-and-forget notification sink. Delivery
// failures never propagate back into engine control flow.
package notify

import "github.com/rs/zerolog/log"

// Notification kinds emitted by the engine.
const (
	KindSettlement  = "settlement"
	KindRiskControl = "risk_control"
	KindError       = "error"
)

// Notifier receives engine notifications for a user.
type Notifier interface {
	Notify(userID int64, kind string, payload map[string]any)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(userID int64, kind string, payload map[string]any)

// Notify implements Notifier.
func (f NotifierFunc) Notify(userID int64, kind string, payload map[string]any) {
	f(userID, kind, payload)
}

// Log is a Notifier that writes notifications to the structured log.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(userID int64, kind string, payload map[string]any) {
	log.Info().
		Int64("user_id", userID).
		Str("kind", kind).
		Fields(payload).
		Msg("notification")
}
