// Package transport defines the outbound chat boundary. The engine never
// owns a wire protocol; it only hands formatted bet text to a Sender
// implemented by the hosting application.
package transport

import "context"

// Sender delivers one text message to a chat group on behalf of a user.
// Returns the transport's message id, or an error when the send failed.
type Sender interface {
	Send(ctx context.Context, userID, groupID int64, text string) (string, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, userID, groupID int64, text string) (string, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, userID, groupID int64, text string) (string, error) {
	return f(ctx, userID, groupID, text)
}
