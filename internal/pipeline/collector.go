package pipeline

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Collector buffers the rows decoded from each file of a batch until every
// worker is done, so consumers only ever see a complete batch.
type Collector[T any] struct {
	name  string
	order []string
	rows  map[string][]T
	total int
	mu    sync.Mutex
}

// NewCollector creates a collector for the given files; results come back in this order.
func NewCollector[T any](name string, files []string) *Collector[T] {
	return &Collector[T]{
		name:  name,
		order: append([]string(nil), files...),
		rows:  make(map[string][]T, len(files)),
	}
}

// AddFileData stores the rows decoded from one file
func (c *Collector[T]) AddFileData(file string, rows []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows[file] = rows
	c.total += len(rows)

	log.Debug().
		Str("pipeline", c.name).
		Str("file", file).
		Int("rows", len(rows)).
		Int("buffered_files", len(c.rows)).
		Msg("file buffered")
}

// Finalize returns the decoded files in batch order. Files that failed or were
// skipped have no entry.
func (c *Collector[T]) Finalize() *Batch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &Batch[T]{Rows: make(map[string][]T, len(c.rows))}
	for _, f := range c.order {
		if rows, ok := c.rows[f]; ok {
			b.Files = append(b.Files, f)
			b.Rows[f] = rows
		}
	}
	return b
}

// GetBufferStats returns current buffer statistics
func (c *Collector[T]) GetBufferStats() (fileCount int, rowCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows), c.total
}

// Batch is the decoded output of one run.
type Batch[T any] struct {
	Files []string
	Rows  map[string][]T
}

// Has reports whether file decoded successfully.
func (b *Batch[T]) Has(file string) bool {
	_, ok := b.Rows[file]
	return ok
}
