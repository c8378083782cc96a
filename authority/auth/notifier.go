package auth

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers password reset tokens to the account owner
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogNotifier writes reset tokens to the log. It stands in for a mail
// sender in local development.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.logger.Info().Str("email", email).Str("reset_token", token).Msg("password reset requested")
	return nil
}
