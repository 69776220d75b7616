package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lingopipe/lingopipe/internal/domain"
)

// JobRepository is the durable result store for translation jobs.
// Implementations must be safe for concurrent use.
type JobRepository interface {
	// Create inserts the PENDING record for a newly submitted job.
	// The submitter is the only caller; a job ID is never reused.
	Create(ctx context.Context, job *domain.TranslationJob) error

	// GetByID resolves a job ID to its current record, whatever the status.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TranslationJob, error)

	// SetTerminal performs the single terminal write for a job: a full
	// overwrite of status, results, error and completedAt. Overwrite
	// semantics make the write idempotent under queue redelivery.
	SetTerminal(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error

	// FindStalePending returns PENDING jobs created before the cutoff,
	// oldest first, for the orphan reconciliation sweep.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TranslationJob, error)
}

// UserRepository persists caller-domain user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, userID string, update *domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

// IdempotencyStore guards against two workers processing the same job
// concurrently. The terminal write itself is idempotent, so the guard is an
// optimization against double-billing the backend, not a correctness
// requirement.
type IdempotencyStore interface {
	// AcquireLock attempts to take the processing lock for a job. Returns
	// false when another worker currently holds it.
	AcquireLock(ctx context.Context, jobID uuid.UUID) (bool, error)

	// ReleaseLock keeps the lock with a TTL after a successful terminal
	// write, so a redelivered duplicate is short-circuited.
	ReleaseLock(ctx context.Context, jobID uuid.UUID) error

	// Unlock removes the lock after a failed attempt so queue redelivery
	// can retry the job immediately.
	Unlock(ctx context.Context, jobID uuid.UUID) error
}
