package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lingopipe/lingopipe/internal/repository"
)

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore is an in-memory mock of the processing lock.
type IdempotencyStore struct {
	mu           sync.Mutex
	held         map[uuid.UUID]bool
	AcquireCalls []uuid.UUID
	ReleaseCalls []uuid.UUID
	UnlockCalls  []uuid.UUID

	AcquireLockFn func(ctx context.Context, jobID uuid.UUID) (bool, error)
}

func (m *IdempotencyStore) AcquireLock(ctx context.Context, jobID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcquireCalls = append(m.AcquireCalls, jobID)
	if m.AcquireLockFn != nil {
		return m.AcquireLockFn(ctx, jobID)
	}
	if m.held == nil {
		m.held = make(map[uuid.UUID]bool)
	}
	if m.held[jobID] {
		return false, nil
	}
	m.held[jobID] = true
	return true, nil
}

func (m *IdempotencyStore) ReleaseLock(ctx context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls = append(m.ReleaseCalls, jobID)
	return nil
}

func (m *IdempotencyStore) Unlock(ctx context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockCalls = append(m.UnlockCalls, jobID)
	delete(m.held, jobID)
	return nil
}
