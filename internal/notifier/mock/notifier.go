package mock

import (
	"context"
	"sync"

	"github.com/lingopipe/lingopipe/internal/notifier"
)

var _ notifier.Notifier = (*Notifier)(nil)

// Sent records one notification for test assertions.
type Sent struct {
	Recipient string
	Message   string
}

// Notifier is an in-memory mock notification sender.
type Notifier struct {
	mu     sync.Mutex
	Sends  []Sent
	SendFn func(ctx context.Context, recipient, message string) error
}

func (m *Notifier) Send(ctx context.Context, recipient, message string) error {
	if m.SendFn != nil {
		return m.SendFn(ctx, recipient, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sends = append(m.Sends, Sent{Recipient: recipient, Message: message})
	return nil
}

// Count returns the number of notifications sent.
func (m *Notifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sends)
}
