package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/metrics"
	"github.com/lingopipe/lingopipe/internal/usecase"
)

// WorkerPool manages a fixed-size pool of goroutines draining job messages.
// Each message is acked only after the terminal write succeeded; failures
// nack with requeue so at-least-once redelivery retries the whole job.
type WorkerPool struct {
	size       int
	jobs       <-chan *domain.JobMessage
	processUC  *usecase.ProcessJobUsecase
	jobTimeout time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool. jobTimeout bounds the
// processing of one job; zero means no per-job deadline.
func NewWorkerPool(size int, jobs <-chan *domain.JobMessage, processUC *usecase.ProcessJobUsecase, jobTimeout time.Duration, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       jobs,
		processUC:  processUC,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Job channel closed", zap.Int("worker_id", id))
				return
			}
			p.handle(ctx, id, msg)
		}
	}
}

func (p *WorkerPool) handle(ctx context.Context, id int, msg *domain.JobMessage) {
	// Recover per message, not per worker: a panic must settle the delivery
	// (nack with requeue) and leave the worker alive, otherwise prefetch=1
	// wedges the whole consumer behind the unsettled message.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic while processing job, requeueing",
				zap.Int("worker_id", id),
				zap.String("job_id", msg.JobID.String()),
				zap.Any("panic", r),
			)
			if nackErr := msg.Nack(true); nackErr != nil {
				p.logger.Error("Failed to NACK message after panic",
					zap.String("job_id", msg.JobID.String()),
					zap.Error(nackErr),
				)
			}
		}
	}()

	p.logger.Info("Worker processing job",
		zap.Int("worker_id", id),
		zap.String("job_id", msg.JobID.String()),
	)

	jobCtx := ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	isDuplicate, err := p.processUC.Execute(jobCtx, msg.JobID, msg.Request)

	if err != nil {
		p.logger.Error("Job processing failed, requeueing",
			zap.Int("worker_id", id),
			zap.String("job_id", msg.JobID.String()),
			zap.Error(err),
		)

		// The terminal write did not happen; requeue so redelivery retries
		// the whole job. Re-running the fan-out is safe because the terminal
		// write is a full overwrite.
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("Failed to NACK message",
				zap.String("job_id", msg.JobID.String()),
				zap.Error(nackErr),
			)
		}
		return
	}

	if isDuplicate {
		p.logger.Debug("Duplicate delivery dropped",
			zap.Int("worker_id", id),
			zap.String("job_id", msg.JobID.String()),
		)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("Failed to ACK message",
			zap.String("job_id", msg.JobID.String()),
			zap.Error(ackErr),
		)
	}
}
