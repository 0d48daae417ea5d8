package testutil

import (
	"context"
	"sync"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
)

// RecordingMailer keeps every message instead of delivering it. Err, when
// set, is returned from Send and nothing is recorded.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []notification.Message
	Err  error
}

// Send records msg
func (m *RecordingMailer) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (m *RecordingMailer) Sent() []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// WithSubject returns the recorded messages carrying subject
func (m *RecordingMailer) WithSubject(subject string) []notification.Message {
	var out []notification.Message
	for _, msg := range m.Sent() {
		if msg.Subject == subject {
			out = append(out, msg)
		}
	}
	return out
}

var _ notification.Mailer = (*RecordingMailer)(nil)
