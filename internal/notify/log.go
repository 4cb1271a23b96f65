package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes messages to the log instead of delivering them. It is
// meant for local development.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs msg.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("outbound mail")
	return nil
}
