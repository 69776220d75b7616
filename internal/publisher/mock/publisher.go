package mock

import (
	"context"
	"sync"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/publisher"
)

var _ publisher.Publisher = (*Publisher)(nil)

// Publisher is a mock job message publisher for testing.
type Publisher struct {
	mu        sync.Mutex
	Published []*domain.QueueMessage
	PublishFn func(ctx context.Context, msg *domain.QueueMessage) error
}

// NewPublisher creates a new mock publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

func (m *Publisher) Publish(ctx context.Context, msg *domain.QueueMessage) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, msg)
	return nil
}

func (m *Publisher) Close() error {
	return nil
}

// Count returns the number of published messages.
func (m *Publisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
