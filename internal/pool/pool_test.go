package pool_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/pool"
	mockrepo "github.com/lingopipe/lingopipe/internal/repository/mock"
	mocktr "github.com/lingopipe/lingopipe/internal/translator/mock"
	"github.com/lingopipe/lingopipe/internal/usecase"
)

func testRetry() usecase.RetryPolicy {
	return usecase.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestPool(t *testing.T, poolSize int, repo *mockrepo.JobRepository, backend *mocktr.Translator) (chan *domain.JobMessage, *pool.WorkerPool, context.CancelFunc) {
	t.Helper()

	logger := zap.NewNop()
	locks := &mockrepo.IdempotencyStore{}
	uc := usecase.NewProcessJobUsecase(repo, locks, backend, nil, 4, testRetry(), logger)

	ch := make(chan *domain.JobMessage, 16)
	ctx, cancel := context.WithCancel(context.Background())
	wp := pool.NewWorkerPool(poolSize, ch, uc, 0, logger)
	wp.Start(ctx)

	return ch, wp, cancel
}

func sendJob(repo *mockrepo.JobRepository, ch chan<- *domain.JobMessage, acked, nacked *atomic.Int32) {
	req := &domain.TranslateRequest{
		TargetLanguages: []string{"fr"},
		Language:        "en",
		Fields:          []domain.Field{{Text: "Hello"}},
	}
	id := uuid.New()
	repo.Seed(&domain.TranslationJob{
		JobID:           id,
		SourceLanguage:  req.Language,
		TargetLanguages: req.TargetLanguages,
		Fields:          req.Fields,
		Status:          domain.StatusPending,
		CreatedAt:       time.Now().UTC(),
	})

	ch <- &domain.JobMessage{
		JobID:   id,
		Request: req,
		Ack: func() error {
			acked.Add(1)
			return nil
		},
		Nack: func(requeue bool) error {
			nacked.Add(1)
			return nil
		},
	}
}

// Test: pool processes jobs and ACKs them after the terminal write.
func TestPool_ProcessAndAck(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	backend := &mocktr.Translator{}
	ch, wp, cancel := newTestPool(t, 2, repo, backend)

	var acked, nacked atomic.Int32

	for i := 0; i < 5; i++ {
		sendJob(repo, ch, &acked, &nacked)
	}

	// Give workers time to process.
	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if acked.Load() != 5 {
		t.Errorf("expected 5 ACKs, got %d", acked.Load())
	}
	if nacked.Load() != 0 {
		t.Errorf("expected 0 NACKs, got %d", nacked.Load())
	}
	if len(repo.TerminalWrites) != 5 {
		t.Errorf("expected 5 terminal writes, got %d", len(repo.TerminalWrites))
	}
}

// Test: pool NACKs with requeue when the terminal write fails.
func TestPool_NacksOnStoreFailure(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	repo.SetTerminalFn = func(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error {
		return context.DeadlineExceeded
	}
	backend := &mocktr.Translator{}
	ch, wp, cancel := newTestPool(t, 1, repo, backend)

	var acked, nacked atomic.Int32
	sendJob(repo, ch, &acked, &nacked)

	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if nacked.Load() != 1 {
		t.Errorf("expected 1 NACK, got %d", nacked.Load())
	}
	if acked.Load() != 0 {
		t.Errorf("expected 0 ACKs, got %d", acked.Load())
	}
}

// Test: pool shuts down gracefully (context cancellation).
func TestPool_GracefulShutdown(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	backend := &mocktr.Translator{}
	ch, wp, cancel := newTestPool(t, 4, repo, backend)

	var acked, nacked atomic.Int32
	sendJob(repo, ch, &acked, &nacked)
	sendJob(repo, ch, &acked, &nacked)

	// Small delay so at least one job gets picked up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	wp.Stop()
	close(ch)

	total := acked.Load() + nacked.Load()
	if total < 1 {
		t.Errorf("expected at least 1 processed job, got %d", total)
	}
}

// Test: a panic while handling one message NACKs it with requeue and leaves
// the worker alive to process subsequent messages.
func TestPool_PanicNacksAndWorkerSurvives(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	var terminalCalls atomic.Int32
	repo.SetTerminalFn = func(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error {
		if terminalCalls.Add(1) == 1 {
			panic("corrupt result payload")
		}
		return nil
	}
	backend := &mocktr.Translator{}
	ch, wp, cancel := newTestPool(t, 1, repo, backend)

	var acked, nacked atomic.Int32
	sendJob(repo, ch, &acked, &nacked)
	sendJob(repo, ch, &acked, &nacked)

	time.Sleep(300 * time.Millisecond)

	cancel()
	wp.Stop()

	if nacked.Load() != 1 {
		t.Errorf("expected panicking message NACKed once, got %d", nacked.Load())
	}
	if acked.Load() != 1 {
		t.Errorf("expected the next message processed and ACKed, got %d", acked.Load())
	}
}

// Test: a redelivered duplicate is ACKed, not NACKed, and not reprocessed.
func TestPool_DuplicateIsAcked(t *testing.T) {
	logger := zap.NewNop()
	repo := mockrepo.NewJobRepository()
	locks := &mockrepo.IdempotencyStore{
		AcquireLockFn: func(ctx context.Context, jobID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	backend := &mocktr.Translator{}
	uc := usecase.NewProcessJobUsecase(repo, locks, backend, nil, 4, testRetry(), logger)

	ch := make(chan *domain.JobMessage, 1)
	ctx, cancel := context.WithCancel(context.Background())
	wp := pool.NewWorkerPool(1, ch, uc, 0, logger)
	wp.Start(ctx)

	id := uuid.New()
	done := time.Now().UTC()
	repo.Seed(&domain.TranslationJob{JobID: id, Status: domain.StatusCompleted, CompletedAt: &done})

	var acked, nacked atomic.Int32
	ch <- &domain.JobMessage{
		JobID: id,
		Request: &domain.TranslateRequest{
			TargetLanguages: []string{"fr"},
			Language:        "en",
			Fields:          []domain.Field{{Text: "Hello"}},
		},
		Ack:  func() error { acked.Add(1); return nil },
		Nack: func(requeue bool) error { nacked.Add(1); return nil },
	}

	time.Sleep(100 * time.Millisecond)
	cancel()
	wp.Stop()

	if acked.Load() != 1 {
		t.Errorf("expected duplicate ACKed once, got %d", acked.Load())
	}
	if nacked.Load() != 0 {
		t.Errorf("expected 0 NACKs, got %d", nacked.Load())
	}
	if backend.CallCount() != 0 {
		t.Errorf("expected no backend calls for duplicate, got %d", backend.CallCount())
	}
}
