// Package mailer provides Mailer implementations.
package mailer

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailer = (*LogMailer)(nil)

// LogMailer writes reset links to the log instead of sending email. It is the
// only mailer shipped; outbound delivery is left to the hosting environment.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer writing to logger.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the reset link for email.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "password reset requested", "email", email, "link", link)
	return nil
}
