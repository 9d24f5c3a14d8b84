package pipeline

import (
	"context"
	"errors"
	"time"
)

// ErrSkipFile is returned by Validate for inputs the pipeline does not handle.
// Skipped files are recorded on the run but are not failures.
var ErrSkipFile = errors.New("file skipped")

// Pipeline defines the interface that all file pipelines must implement
type Pipeline[T any] interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error

	// Transform decodes a single input file into rows
	Transform(ctx context.Context, inputFile string) ([]T, error)
}

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name          string
	WorkerCount   int           // Number of concurrent workers
	RetryAttempts int           // Attempts per file, first try included
	RetryBackoff  time.Duration // Backoff duration between retries
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:          name,
		WorkerCount:   4,
		RetryAttempts: 2,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
	FileStatusSkipped    FileJobStatus = "skipped"
)

// PipelineRun tracks a single execution of a pipeline over a batch of files
type PipelineRun struct {
	ID             string         `json:"id"`
	PipelineName   string         `json:"pipeline_name"`
	Status         PipelineStatus `json:"status"`
	TotalFiles     int            `json:"total_files"`
	ProcessedFiles int            `json:"processed_files"`
	FailedFiles    int            `json:"failed_files"`
	SkippedFiles   int            `json:"skipped_files"`
	TotalRows      int            `json:"total_rows"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	Jobs           []*FileJob     `json:"jobs"`
}

// FileJob tracks the processing of a single file
type FileJob struct {
	FilePath     string        `json:"file_path"`
	Status       FileJobStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Rows         int           `json:"rows"`
	Duration     time.Duration `json:"duration"`
	RetryCount   int           `json:"retry_count"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
}
