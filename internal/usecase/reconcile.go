package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/metrics"
	"github.com/lingopipe/lingopipe/internal/publisher"
	"github.com/lingopipe/lingopipe/internal/repository"
)

// Reconciler sweeps for PENDING records whose queue message was lost (the
// submitter crashed between the insert and the publish, or the compensating
// FAILED write itself failed). Stale records are re-published; re-publishing
// a job that was merely slow is safe because the worker's terminal write is
// a full overwrite. Records stale beyond orphanAfter are marked FAILED.
type Reconciler struct {
	repo        repository.JobRepository
	publisher   publisher.Publisher
	staleAfter  time.Duration
	orphanAfter time.Duration
	batchSize   int
	logger      *zap.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	repo repository.JobRepository,
	pub publisher.Publisher,
	staleAfter, orphanAfter time.Duration,
	batchSize int,
	logger *zap.Logger,
) *Reconciler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reconciler{
		repo:        repo,
		publisher:   pub,
		staleAfter:  staleAfter,
		orphanAfter: orphanAfter,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// Run performs one sweep. Intended to be scheduled periodically.
func (r *Reconciler) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-r.staleAfter)
	jobs, err := r.repo.FindStalePending(ctx, cutoff, r.batchSize)
	if err != nil {
		return fmt.Errorf("reconcile: find stale pending: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	r.logger.Info("Reconciling stale PENDING jobs", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		if time.Since(job.CreatedAt) > r.orphanAfter {
			term := &domain.TerminalResult{
				Status:      domain.StatusFailed,
				Error:       fmt.Sprintf("job orphaned: still PENDING after %s", r.orphanAfter),
				CompletedAt: time.Now().UTC(),
			}
			if err := r.repo.SetTerminal(ctx, job.JobID, term); err != nil {
				r.logger.Warn("Failed to fail orphaned job", zap.Error(err), zap.String("job_id", job.JobID.String()))
				continue
			}
			metrics.StaleJobsFailed.Inc()
			r.logger.Warn("Orphaned job marked FAILED",
				zap.String("job_id", job.JobID.String()),
				zap.Time("created_at", job.CreatedAt),
			)
			continue
		}

		msg := &domain.QueueMessage{
			JobID: job.JobID.String(),
			Request: &domain.TranslateRequest{
				TargetLanguages: job.TargetLanguages,
				Language:        job.SourceLanguage,
				Fields:          job.Fields,
				RequestedBy:     job.RequestedBy,
				ItemID:          job.ItemID,
				ItemPath:        job.ItemPath,
			},
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			// Leave the record for the next sweep.
			r.logger.Warn("Failed to re-publish stale job", zap.Error(err), zap.String("job_id", job.JobID.String()))
			continue
		}
		metrics.StaleJobsRequeued.Inc()
		r.logger.Info("Re-published stale PENDING job", zap.String("job_id", job.JobID.String()))
	}

	return nil
}
