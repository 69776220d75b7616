package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/domain"
	mockpub "github.com/lingopipe/lingopipe/internal/publisher/mock"
	mockrepo "github.com/lingopipe/lingopipe/internal/repository/mock"
)

func seedPendingAge(repo *mockrepo.JobRepository, age time.Duration) uuid.UUID {
	id := uuid.New()
	repo.Seed(&domain.TranslationJob{
		JobID:           id,
		SourceLanguage:  "en",
		TargetLanguages: []string{"fr"},
		Fields:          []domain.Field{{Text: "Hello"}},
		Status:          domain.StatusPending,
		CreatedAt:       time.Now().UTC().Add(-age),
	})
	return id
}

func TestReconciler_RepublishesStalePending(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	pub := mockpub.NewPublisher()
	r := NewReconciler(repo, pub, 5*time.Minute, time.Hour, 100, zap.NewNop())

	staleID := seedPendingAge(repo, 10*time.Minute)
	seedPendingAge(repo, time.Minute) // fresh, must not be touched

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pub.Count() != 1 {
		t.Fatalf("expected 1 re-published message, got %d", pub.Count())
	}
	msg := pub.Published[0]
	if msg.JobID != staleID.String() {
		t.Errorf("expected stale job %s re-published, got %s", staleID, msg.JobID)
	}
	if msg.Request == nil || msg.Request.Language != "en" {
		t.Errorf("expected request rebuilt from the record, got %+v", msg.Request)
	}
	// Record stays PENDING until a worker finishes it
	if repo.Get(staleID).Status != domain.StatusPending {
		t.Errorf("expected record left PENDING, got %s", repo.Get(staleID).Status)
	}
}

func TestReconciler_FailsOrphanedRecords(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	pub := mockpub.NewPublisher()
	r := NewReconciler(repo, pub, 5*time.Minute, time.Hour, 100, zap.NewNop())

	orphanID := seedPendingAge(repo, 2*time.Hour)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pub.Count() != 0 {
		t.Errorf("expected orphan not re-published, got %d messages", pub.Count())
	}
	job := repo.Get(orphanID)
	if job.Status != domain.StatusFailed {
		t.Fatalf("expected orphan marked FAILED, got %s", job.Status)
	}
	if job.Error == "" {
		t.Error("expected a diagnostic on the orphaned record")
	}
}

func TestReconciler_PublishFailureLeavesRecordForNextSweep(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	pub := mockpub.NewPublisher()
	pub.PublishFn = func(ctx context.Context, msg *domain.QueueMessage) error {
		return errors.New("broker unavailable")
	}
	r := NewReconciler(repo, pub, 5*time.Minute, time.Hour, 100, zap.NewNop())

	staleID := seedPendingAge(repo, 10*time.Minute)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("sweep must not fail on a publish error: %v", err)
	}
	if repo.Get(staleID).Status != domain.StatusPending {
		t.Errorf("expected record untouched, got %s", repo.Get(staleID).Status)
	}
}

func TestReconciler_NoStaleRecordsIsNoop(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	pub := mockpub.NewPublisher()
	r := NewReconciler(repo, pub, 5*time.Minute, time.Hour, 100, zap.NewNop())

	seedPendingAge(repo, time.Minute)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.Count() != 0 {
		t.Errorf("expected no messages, got %d", pub.Count())
	}
}
