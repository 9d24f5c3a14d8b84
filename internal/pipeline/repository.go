package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("pipeline run not found")

const defaultRunHistory = 20

// Repository keeps the most recent pipeline runs in memory.
type Repository struct {
	mu      sync.RWMutex
	runs    []*PipelineRun
	limit   int
	nowFunc func() time.Time
}

// NewRepository creates a run repository that keeps at most limit runs.
func NewRepository(limit int) *Repository {
	if limit <= 0 {
		limit = defaultRunHistory
	}
	return &Repository{limit: limit, nowFunc: time.Now}
}

// clone returns a deep copy of run so stored runs never share memory with a
// run that a worker is still updating.
func (run *PipelineRun) clone() *PipelineRun {
	out := *run
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		out.CompletedAt = &t
	}
	if run.Jobs != nil {
		out.Jobs = make([]*FileJob, len(run.Jobs))
		for i, job := range run.Jobs {
			j := *job
			if job.ProcessedAt != nil {
				t := *job.ProcessedAt
				j.ProcessedAt = &t
			}
			out.Jobs[i] = &j
		}
	}
	return &out
}

// CreatePipelineRun registers a new run and assigns its ID. The repository keeps
// its own copy; later changes to run are published with UpdatePipelineRun.
func (r *Repository) CreatePipelineRun(_ context.Context, run *PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.nowFunc()
	}
	r.runs = append(r.runs, run.clone())
	if len(r.runs) > r.limit {
		r.runs = append([]*PipelineRun(nil), r.runs[len(r.runs)-r.limit:]...)
	}
	return nil
}

// UpdatePipelineRun replaces the stored copy of a run
func (r *Repository) UpdatePipelineRun(_ context.Context, run *PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.runs {
		if existing.ID == run.ID {
			r.runs[i] = run.clone()
			return nil
		}
	}
	return ErrRunNotFound
}

// GetPipelineRun retrieves a copy of a run by ID
func (r *Repository) GetPipelineRun(_ context.Context, id string) (*PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.ID == id {
			return run.clone(), nil
		}
	}
	return nil, ErrRunNotFound
}

// GetLatestPipelineRun returns the most recently started run of a pipeline
func (r *Repository) GetLatestPipelineRun(_ context.Context, pipelineName string) (*PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].PipelineName == pipelineName {
			return r.runs[i], nil
		}
	}
	return nil, ErrRunNotFound
}

// ListPipelineRuns returns stored runs, newest first
func (r *Repository) ListPipelineRuns(_ context.Context) []*PipelineRun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*PipelineRun, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		out = append(out, r.runs[i].clone())
	}
	return out
}
