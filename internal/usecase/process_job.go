package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/metrics"
	"github.com/lingopipe/lingopipe/internal/notifier"
	"github.com/lingopipe/lingopipe/internal/repository"
	"github.com/lingopipe/lingopipe/internal/translator"
)

// RetryPolicy bounds per-call retries against the translation backend.
// Only throttle signals are retried; backend errors fail the pair at once.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is a conservative bounded default.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
}

// ProcessJobUsecase executes one translation job: fan out one backend call
// per (field, target language) pair under a bounded concurrency cap,
// aggregate the per-field translation maps, and perform the single terminal
// write. A failed pair is omitted from its field's map; the job only FAILs
// when every call failed.
type ProcessJobUsecase struct {
	repo        repository.JobRepository
	idempotent  repository.IdempotencyStore
	backend     translator.Translator
	notify      notifier.Notifier
	fanOutLimit int
	retry       RetryPolicy
	logger      *zap.Logger
}

// NewProcessJobUsecase creates a new ProcessJobUsecase. notify may be nil.
func NewProcessJobUsecase(
	repo repository.JobRepository,
	idempotent repository.IdempotencyStore,
	backend translator.Translator,
	notify notifier.Notifier,
	fanOutLimit int,
	retry RetryPolicy,
	logger *zap.Logger,
) *ProcessJobUsecase {
	if fanOutLimit <= 0 {
		fanOutLimit = 1
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &ProcessJobUsecase{
		repo:        repo,
		idempotent:  idempotent,
		backend:     backend,
		notify:      notify,
		fanOutLimit: fanOutLimit,
		retry:       retry,
		logger:      logger,
	}
}

// Execute processes a single job message. Returns (isDuplicate, error).
// A non-nil error means the message must be redelivered (the terminal write
// did not happen); isDuplicate means the job already reached a terminal
// state and the message can be dropped.
func (uc *ProcessJobUsecase) Execute(ctx context.Context, jobID uuid.UUID, req *domain.TranslateRequest) (bool, error) {
	acquired, err := uc.idempotent.AcquireLock(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !acquired {
		// Another worker holds or recently held the lock. If the record is
		// already terminal this is a redelivered duplicate.
		job, getErr := uc.repo.GetByID(ctx, jobID)
		if getErr == nil && job.Status.IsTerminal() {
			uc.logger.Info("Duplicate delivery for terminal job, skipping", zap.String("job_id", jobID.String()))
			return true, nil
		}
		return false, fmt.Errorf("job %s locked by another worker", jobID)
	}

	start := time.Now()
	results, successes, failures := uc.fanOut(ctx, req)

	if ctx.Err() != nil {
		// Deadline or shutdown hit mid-fan-out: never persist a silently
		// incomplete COMPLETED record; leave the message for redelivery.
		_ = uc.idempotent.Unlock(context.WithoutCancel(ctx), jobID)
		return false, fmt.Errorf("job %s abandoned: %w", jobID, ctx.Err())
	}

	term := &domain.TerminalResult{CompletedAt: time.Now().UTC()}
	if successes == 0 {
		term.Status = domain.StatusFailed
		term.Error = summarizeFailures(failures)
	} else {
		term.Status = domain.StatusCompleted
		term.Results = results
	}

	if err := uc.repo.SetTerminal(ctx, jobID, term); err != nil {
		uc.logger.Error("Terminal write failed", zap.Error(err), zap.String("job_id", jobID.String()))
		_ = uc.idempotent.Unlock(context.WithoutCancel(ctx), jobID)
		return false, err
	}
	_ = uc.idempotent.ReleaseLock(ctx, jobID)

	metrics.JobsProcessed.WithLabelValues(string(term.Status)).Inc()
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	uc.logger.Info("Translation job processed",
		zap.String("job_id", jobID.String()),
		zap.String("status", string(term.Status)),
		zap.Int("successes", successes),
		zap.Int("failures", len(failures)),
	)

	if uc.notify != nil && req.RequestedBy != "" {
		content := fmt.Sprintf("Translation job %s finished with status %s", jobID, term.Status)
		if err := uc.notify.Send(ctx, req.RequestedBy, content); err != nil {
			uc.logger.Warn("Failed to send completion notification", zap.Error(err), zap.String("job_id", jobID.String()))
		}
	}

	return false, nil
}

// fanOut issues |fields| x |targetLanguages| independent backend calls with
// bounded concurrency. Result slots are pre-allocated per field so the
// aggregation preserves field order; the mutex only guards the per-field
// translation maps and the counters.
func (uc *ProcessJobUsecase) fanOut(ctx context.Context, req *domain.TranslateRequest) ([]domain.FieldResult, int, []string) {
	results := make([]domain.FieldResult, len(req.Fields))
	for i, f := range req.Fields {
		results[i] = domain.FieldResult{
			Metadata:     f.Metadata,
			Translations: make(map[string]string, len(req.TargetLanguages)),
		}
	}

	var (
		mu        sync.Mutex
		successes int
		failures  []string
	)

	g := new(errgroup.Group)
	g.SetLimit(uc.fanOutLimit)

	for i := range req.Fields {
		for _, lang := range req.TargetLanguages {
			i, lang := i, lang
			g.Go(func() error {
				translated, err := uc.translateWithRetry(ctx, req.Fields[i].Text, lang, req.Language)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Partial-success policy: the failed pair is omitted
					// from the field's map, the job carries on.
					failures = append(failures, fmt.Sprintf("field[%d] %s: %v", i, lang, err))
					return nil
				}
				results[i].Translations[lang] = translated
				successes++
				return nil
			})
		}
	}
	_ = g.Wait()

	return results, successes, failures
}

// translateWithRetry retries throttled calls with exponential backoff and
// jitter, up to the configured attempt bound.
func (uc *ProcessJobUsecase) translateWithRetry(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error) {
	delay := uc.retry.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= uc.retry.MaxAttempts; attempt++ {
		out, err := uc.backend.Translate(ctx, text, targetLanguage, sourceLanguage)
		if err == nil {
			metrics.BackendCalls.WithLabelValues("success").Inc()
			return out, nil
		}
		lastErr = err

		if !errors.Is(err, translator.ErrThrottled) {
			metrics.BackendCalls.WithLabelValues("error").Inc()
			return "", err
		}
		metrics.BackendCalls.WithLabelValues("throttled").Inc()

		if attempt == uc.retry.MaxAttempts {
			break
		}
		metrics.BackendRetries.Inc()

		uc.logger.Debug("Backend throttled, backing off",
			zap.String("target_language", targetLanguage),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		// Half fixed, half jitter, so concurrent retries spread out.
		sleep := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return "", ctx.Err()
		}

		delay *= 2
		if delay > uc.retry.MaxDelay {
			delay = uc.retry.MaxDelay
		}
	}

	return "", lastErr
}

// summarizeFailures builds the job-level diagnostic for a total failure.
func summarizeFailures(failures []string) string {
	const maxShown = 5
	if len(failures) == 0 {
		return "no translation calls were made"
	}
	shown := failures
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	summary := fmt.Sprintf("all %d translation calls failed: %s", len(failures), strings.Join(shown, "; "))
	if len(failures) > maxShown {
		summary += fmt.Sprintf(" (and %d more)", len(failures)-maxShown)
	}
	return summary
}
