package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/metrics"
	"github.com/lingopipe/lingopipe/internal/publisher"
	"github.com/lingopipe/lingopipe/internal/repository"
)

// SubmitJobUsecase validates a translation request, persists the PENDING
// record and enqueues the job message. It returns as soon as the broker
// confirms the message; processing happens asynchronously.
type SubmitJobUsecase struct {
	repo      repository.JobRepository
	publisher publisher.Publisher
	logger    *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(repo repository.JobRepository, pub publisher.Publisher, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		repo:      repo,
		publisher: pub,
		logger:    logger,
	}
}

// Execute runs the submission: validate, create PENDING, publish, return ID.
// If the publish fails after the PENDING record is written, the record is
// marked FAILED so it cannot linger as an orphan; the reconciliation sweep
// covers the remaining window where even that compensation fails.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, req *domain.TranslateRequest) (*domain.SubmitResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 128-bit random identifier from a cryptographically strong source.
	jobID := uuid.New()

	job := &domain.TranslationJob{
		JobID:           jobID,
		SourceLanguage:  req.Language,
		TargetLanguages: req.TargetLanguages,
		Fields:          req.Fields,
		RequestedBy:     req.RequestedBy,
		ItemID:          req.ItemID,
		ItemPath:        req.ItemPath,
		Status:          domain.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, job); err != nil {
		uc.logger.Error("Failed to create job record", zap.Error(err), zap.String("job_id", jobID.String()))
		return nil, err
	}

	msg := &domain.QueueMessage{JobID: jobID.String(), Request: req}
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		uc.logger.Error("Failed to publish job message", zap.Error(err), zap.String("job_id", jobID.String()))
		// Compensate so the PENDING record does not become an orphan.
		_ = uc.repo.SetTerminal(ctx, jobID, &domain.TerminalResult{
			Status:      domain.StatusFailed,
			Error:       "failed to enqueue translation job",
			CompletedAt: time.Now().UTC(),
		})
		return nil, domain.ErrPublishFailed
	}

	metrics.JobsSubmitted.Inc()
	uc.logger.Info("Translation job submitted",
		zap.String("job_id", jobID.String()),
		zap.String("source_language", req.Language),
		zap.Int("target_languages", len(req.TargetLanguages)),
		zap.Int("fields", len(req.Fields)),
	)

	return &domain.SubmitResponse{
		Message: "Translation job accepted",
		JobID:   jobID,
		Status:  domain.StatusPending,
	}, nil
}
