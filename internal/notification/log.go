package notification

import (
	"context"
	"log/slog"
)

// LogMailer stands in for a real transport in development. It records the
// recipient only.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string) error {
	m.logger.InfoContext(ctx, "reset code mail suppressed", "to", to)
	return nil
}
