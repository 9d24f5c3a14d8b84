package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline decodes "ok-N" files into N rows, skips "skip-*" and fails "bad-*".
// "flaky-*" files fail on their first attempt only.
type fakePipeline struct {
	mu       sync.Mutex
	attempts map[string]int
}

func (f *fakePipeline) Name() string { return "fake" }

func (f *fakePipeline) Validate(file string) error {
	if strings.HasPrefix(file, "skip-") {
		return fmt.Errorf("%w: %s", ErrSkipFile, file)
	}
	if strings.HasPrefix(file, "invalid-") {
		return errors.New("unreadable")
	}
	return nil
}

func (f *fakePipeline) Transform(_ context.Context, file string) ([]string, error) {
	f.mu.Lock()
	f.attempts[file]++
	n := f.attempts[file]
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(file, "bad-"):
		return nil, errors.New("corrupt")
	case strings.HasPrefix(file, "flaky-") && n == 1:
		return nil, errors.New("transient")
	}
	return []string{file + ":1", file + ":2"}, nil
}

func newFake() *fakePipeline {
	return &fakePipeline{attempts: make(map[string]int)}
}

func testConfig() PipelineConfig {
	cfg := DefaultPipelineConfig("fake")
	cfg.RetryBackoff = 0
	return cfg
}

func TestWorkerIsolatesFailures(t *testing.T) {
	t.Parallel()

	fake := newFake()
	repo := NewRepository(0)
	w := NewWorker[string](fake, testConfig(), repo)

	files := []string{"ok-a", "bad-b", "skip-c", "invalid-d", "flaky-e"}
	run, batch, err := w.ProcessBatch(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 5, run.TotalFiles)
	assert.Equal(t, 2, run.ProcessedFiles)
	assert.Equal(t, 2, run.FailedFiles)
	assert.Equal(t, 1, run.SkippedFiles)
	assert.Equal(t, 4, run.TotalRows)
	assert.NotNil(t, run.CompletedAt)

	assert.Equal(t, []string{"ok-a", "flaky-e"}, batch.Files)
	assert.True(t, batch.Has("flaky-e"))
	assert.False(t, batch.Has("bad-b"))

	statuses := make(map[string]FileJobStatus)
	retries := make(map[string]int)
	for _, job := range run.Jobs {
		statuses[job.FilePath] = job.Status
		retries[job.FilePath] = job.RetryCount
	}
	assert.Equal(t, FileStatusFailed, statuses["bad-b"])
	assert.Equal(t, FileStatusSkipped, statuses["skip-c"])
	assert.Equal(t, FileStatusFailed, statuses["invalid-d"])
	assert.Equal(t, 1, retries["flaky-e"])
	assert.Equal(t, 1, retries["bad-b"])
	assert.Equal(t, 0, fake.attempts["invalid-d"])
	assert.Equal(t, 2, fake.attempts["bad-b"])

	latest, err := repo.GetLatestPipelineRun(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
}

func TestWorkerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorker[string](newFake(), testConfig(), nil)
	run, batch, err := w.ProcessBatch(ctx, []string{"ok-a"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, batch)
	assert.Equal(t, StatusFailed, run.Status)
}

func TestOrchestratorSortsAndDedupes(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator[string](nil, testConfig())
	run, batch, err := o.Run(context.Background(), newFake(), []string{"ok-b", "ok-a", "ok-b"})
	require.NoError(t, err)

	assert.Equal(t, 2, run.TotalFiles)
	assert.Equal(t, []string{"ok-a", "ok-b"}, batch.Files)
	assert.Len(t, o.Repository().ListPipelineRuns(context.Background()), 1)
}

func TestRepositoryKeepsMostRecentRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(2)
	var ids []string
	for i := 0; i < 3; i++ {
		run := &PipelineRun{PipelineName: "fake"}
		require.NoError(t, repo.CreatePipelineRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs := repo.ListPipelineRuns(ctx)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	_, err := repo.GetPipelineRun(ctx, ids[0])
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = repo.GetLatestPipelineRun(ctx, "other")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, repo.UpdatePipelineRun(ctx, &PipelineRun{ID: "missing"}), ErrRunNotFound)
}

func TestRunHistoryReadableDuringBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(0)
	cfg := testConfig()
	cfg.WorkerCount = 4
	w := NewWorker[string](newFake(), cfg, repo)

	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("ok-%02d", i)
	}

	done := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			if run, err := repo.GetLatestPipelineRun(ctx, "fake"); err == nil {
				_, _ = json.Marshal(run)
			}
			for _, run := range repo.ListPipelineRuns(ctx) {
				_, _ = json.Marshal(run)
			}
		}
	}()

	run, _, err := w.ProcessBatch(ctx, files)
	close(done)
	<-readerDone
	require.NoError(t, err)

	stored, err := repo.GetPipelineRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, 50, stored.ProcessedFiles)
	require.Len(t, stored.Jobs, 50)

	stored.Jobs[0].Status = FileStatusFailed
	again, err := repo.GetPipelineRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, FileStatusCompleted, again.Jobs[0].Status)
	assert.NotSame(t, run, again)
}
