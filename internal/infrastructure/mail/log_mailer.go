package mail

import (
	"context"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"go.uber.org/zap"
)

var _ notification.Mailer = (*LogMailer)(nil)

// LogMailer writes mails to the log instead of sending them. Used in
// development and when no mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs msg
func (m *LogMailer) Send(_ context.Context, msg notification.Message) error {
	names := make([]string, len(msg.Attachments))
	for i, a := range msg.Attachments {
		names[i] = a.Filename
	}
	m.logger.Info("mail (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.Strings("attachments", names),
	)
	return nil
}
