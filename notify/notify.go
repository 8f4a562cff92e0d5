// Package notify delivers alert texts to users. The core requires no
// delivery guarantee from a channel; failures are surfaced to the caller
// and the alert is simply retried on the next evaluation cycle.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier sends a text message to a user's chat.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Logger writes notifications to the diagnostics log instead of a real
// channel. Useful for dry runs and tests.
type Logger struct {
	Log zerolog.Logger
}

func (n Logger) Send(_ context.Context, chatID, text string) error {
	n.Log.Info().Str("chat_id", chatID).Str("text", text).Msg("notify")
	return nil
}
