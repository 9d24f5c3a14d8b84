package pipeline

import (
	"context"
	"sort"
)

// Orchestrator coordinates running a Pipeline over a set of local files.
type Orchestrator[T any] struct {
	repo *Repository
	cfg  PipelineConfig
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator[T any](repo *Repository, cfg PipelineConfig) *Orchestrator[T] {
	if repo == nil {
		repo = NewRepository(0)
	}
	return &Orchestrator[T]{repo: repo, cfg: cfg}
}

// Repository exposes the run history.
func (o *Orchestrator[T]) Repository() *Repository {
	return o.repo
}

// Run deduplicates and sorts the files, then processes them as one batch.
func (o *Orchestrator[T]) Run(ctx context.Context, p Pipeline[T], files []string) (*PipelineRun, *Batch[T], error) {
	worker := NewWorker(p, o.cfg, o.repo)
	return worker.ProcessBatch(ctx, uniqueSorted(files))
}

func uniqueSorted(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
