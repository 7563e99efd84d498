package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent processing of multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-seed execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed.
	// We use a factory to ensure each seed gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 4 if not specified. Each crawl is internally sequential
// with its own politeness delay, so raising this only increases load
// when seeds point at distinct hosts.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each seed to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// crawls and allows for per-seed customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline for multiple jobs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each job gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// A job whose pipeline fails has the error recorded on Job.Err; other
// jobs still run. The error return indicates cancellation of the whole
// batch, not individual failures.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) error {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", job.SeedURL,
				"index", i+1,
				"total", len(jobs),
			)

			pipeline := bp.pipelineFactory()
			if err := pipeline.Execute(ctx, job); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				bp.logger.Warn("crawl failed",
					"seed", job.SeedURL,
					"error", err,
				)
				// Record on the job instead of failing the group so the
				// other seeds still run.
				if job.Err == nil {
					job.Err = err
				}
				return nil
			}

			bp.logger.Info("crawl completed",
				"seed", job.SeedURL,
			)

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_seeds", len(jobs),
		"elapsed", elapsed,
	)

	return err
}

// ProcessBatchWithCallback runs the pipeline for multiple jobs and calls a
// callback for each completed job. This is useful for streaming results.
//
// The callback receives the job and its index in the original slice. It is
// called from the goroutine that completed the crawl, so it should be
// thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []*Job,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(jobs),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			pipeline := bp.pipelineFactory()
			if err := pipeline.Execute(ctx, job); err != nil && job.Err == nil {
				job.Err = err
			}

			callback(job, i)

			return nil
		})
	}

	return g.Wait()
}
