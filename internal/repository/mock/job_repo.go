package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/repository"
)

var _ repository.JobRepository = (*JobRepository)(nil)

// TerminalWrite records one SetTerminal call for test assertions.
type TerminalWrite struct {
	JobID  uuid.UUID
	Result *domain.TerminalResult
}

// JobRepository is an in-memory mock of the job store.
type JobRepository struct {
	mu             sync.RWMutex
	jobs           map[uuid.UUID]*domain.TranslationJob
	TerminalWrites []TerminalWrite

	// Hook functions for injecting errors.
	CreateFn      func(ctx context.Context, job *domain.TranslationJob) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.TranslationJob, error)
	SetTerminalFn func(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error
}

// NewJobRepository creates an empty mock job store.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]*domain.TranslationJob)}
}

func (m *JobRepository) Create(ctx context.Context, job *domain.TranslationJob) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.JobID] = &cp
	return nil
}

func (m *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TranslationJob, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *JobRepository) SetTerminal(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error {
	if m.SetTerminalFn != nil {
		return m.SetTerminalFn(ctx, id, result)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TerminalWrites = append(m.TerminalWrites, TerminalWrite{JobID: id, Result: result})
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = result.Status
	job.Results = result.Results
	job.Error = result.Error
	done := result.CompletedAt
	job.CompletedAt = &done
	return nil
}

func (m *JobRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TranslationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stale []*domain.TranslationJob
	for _, job := range m.jobs {
		if job.Status == domain.StatusPending && job.CreatedAt.Before(cutoff) {
			cp := *job
			stale = append(stale, &cp)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

// Seed stores a job directly, bypassing hooks (for test setup).
func (m *JobRepository) Seed(job *domain.TranslationJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.JobID] = &cp
}

// Get returns the stored job without copy semantics checks (for assertions).
func (m *JobRepository) Get(id uuid.UUID) *domain.TranslationJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Len returns the number of stored jobs.
func (m *JobRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
