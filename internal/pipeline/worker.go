package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Worker processes files for a specific pipeline
type Worker[T any] struct {
	pipeline Pipeline[T]
	config   PipelineConfig
	repo     *Repository
	mu       sync.Mutex
}

// NewWorker creates a new pipeline worker
func NewWorker[T any](pipeline Pipeline[T], config PipelineConfig, repo *Repository) *Worker[T] {
	if repo == nil {
		repo = NewRepository(0)
	}
	return &Worker[T]{
		pipeline: pipeline,
		config:   config,
		repo:     repo,
	}
}

// ProcessBatch decodes every file concurrently. A file that fails does not stop
// the others; the returned run records what happened to each one. An error is
// only returned when the batch itself could not complete.
func (w *Worker[T]) ProcessBatch(ctx context.Context, files []string) (*PipelineRun, *Batch[T], error) {
	name := w.pipeline.Name()
	log.Info().Str("pipeline", name).Int("files", len(files)).Msg("starting batch")

	run := &PipelineRun{
		PipelineName: name,
		Status:       StatusPending,
		TotalFiles:   len(files),
	}
	if err := w.repo.CreatePipelineRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}

	run.Jobs = make([]*FileJob, len(files))
	for i, file := range files {
		run.Jobs[i] = &FileJob{FilePath: file, Status: FileStatusQueued}
	}
	run.Status = StatusProcessing
	if err := w.repo.UpdatePipelineRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to start pipeline run: %w", err)
	}

	collector := NewCollector[T](name, files)
	err := w.processFilesParallel(ctx, run, collector)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		_ = w.repo.UpdatePipelineRun(context.WithoutCancel(ctx), run)
		return run, nil, err
	}

	run.Status = StatusCompleted
	if err := w.repo.UpdatePipelineRun(ctx, run); err != nil {
		return run, nil, fmt.Errorf("failed to complete pipeline run: %w", err)
	}

	bufferedFiles, bufferedRows := collector.GetBufferStats()
	log.Info().
		Str("pipeline", name).
		Str("run_id", run.ID).
		Int("processed", run.ProcessedFiles).
		Int("failed", run.FailedFiles).
		Int("skipped", run.SkippedFiles).
		Int("buffered_files", bufferedFiles).
		Int("buffered_rows", bufferedRows).
		Msg("batch processing completed")

	return run, collector.Finalize(), nil
}

// processFilesParallel processes files using a bounded worker pool
func (w *Worker[T]) processFilesParallel(ctx context.Context, run *PipelineRun, collector *Collector[T]) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for _, job := range run.Jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			w.processFile(gctx, run, job, collector)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processFile validates and decodes one file, retrying transform failures
func (w *Worker[T]) processFile(ctx context.Context, run *PipelineRun, job *FileJob, collector *Collector[T]) {
	start := time.Now()
	name := w.pipeline.Name()

	w.setStatus(job, FileStatusProcessing)

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		if errors.Is(err, ErrSkipFile) {
			w.finishJob(ctx, run, job, FileStatusSkipped, 0, err, start)
			log.Debug().Str("pipeline", name).Str("file", job.FilePath).Err(err).Msg("file skipped")
			return
		}
		w.finishJob(ctx, run, job, FileStatusFailed, 0, fmt.Errorf("validation failed: %w", err), start)
		log.Warn().Str("pipeline", name).Str("file", job.FilePath).Err(err).Msg("file rejected")
		return
	}

	attempts := w.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		rows []T
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		rows, err = w.pipeline.Transform(ctx, job.FilePath)
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			w.mu.Lock()
			job.RetryCount++
			w.mu.Unlock()
			log.Warn().
				Str("pipeline", name).
				Str("file", job.FilePath).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Err(err).
				Msg("transform failed, retrying")
			if !sleepContext(ctx, w.config.RetryBackoff) {
				err = ctx.Err()
				break
			}
		}
	}

	if err != nil {
		w.finishJob(ctx, run, job, FileStatusFailed, 0, fmt.Errorf("transformation failed: %w", err), start)
		log.Error().Str("pipeline", name).Str("file", job.FilePath).Err(err).Msg("file failed")
		return
	}

	collector.AddFileData(job.FilePath, rows)
	w.finishJob(ctx, run, job, FileStatusCompleted, len(rows), nil, start)

	log.Info().
		Str("pipeline", name).
		Str("file", job.FilePath).
		Dur("duration", time.Since(start)).
		Int("rows", len(rows)).
		Msg("file completed")
}

func (w *Worker[T]) setStatus(job *FileJob, status FileJobStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job.Status = status
}

// finishJob records the outcome of a job on the run under the worker lock and
// publishes the progress to the repository.
func (w *Worker[T]) finishJob(ctx context.Context, run *PipelineRun, job *FileJob, status FileJobStatus, rows int, err error, start time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	job.Status = status
	job.Rows = rows
	job.Duration = now.Sub(start)
	job.ProcessedAt = &now
	if err != nil {
		job.ErrorMessage = err.Error()
	}

	switch status {
	case FileStatusCompleted:
		run.ProcessedFiles++
		run.TotalRows += rows
	case FileStatusFailed:
		run.FailedFiles++
	case FileStatusSkipped:
		run.SkippedFiles++
	}
	if err := w.repo.UpdatePipelineRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Str("run_id", run.ID).Err(err).Msg("failed to publish run progress")
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
