package services

import (
	"context"
	"log/slog"

	"collabhub/internal/logging"
)

// OTP purposes
const (
	OTPPurposeRegistration = "registration"
	OTPPurposeReset        = "password_reset"
)

// Mailer delivers one-time codes to account owners
type Mailer interface {
	SendOTP(ctx context.Context, email, purpose, code string) error
}

// LogMailer writes codes to the debug log instead of sending mail.
// Delivery is left to whatever relay tails the log in a deployment.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer() *LogMailer {
	return &LogMailer{logger: logging.Component("mailer")}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, purpose, code string) error {
	m.logger.DebugContext(ctx, "one-time code issued", "email", email, "purpose", purpose, "code", code)
	return nil
}
