package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andresuchdata/stockhealth/backend-go/internal/cache"
	"github.com/andresuchdata/stockhealth/backend-go/internal/drive"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockhealth/backend-go/internal/storage"
	"github.com/andresuchdata/stockhealth/backend-go/internal/tabular"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoSnapshot is returned by read operations before the first ingest.
	ErrNoSnapshot = errors.New("no inventory snapshot loaded")
	// ErrUnknownOutlet is returned when an outlet has no items in the snapshot.
	ErrUnknownOutlet = errors.New("unknown outlet")
	// ErrSourceDisabled is returned when a sync source is not configured.
	ErrSourceDisabled = errors.New("sync source not configured")
	// ErrOutsideSource is returned when a requested directory escapes the
	// configured source directory.
	ErrOutsideSource = errors.New("directory outside source dir")
)

// ItemQuery selects and filters a consolidated view.
type ItemQuery struct {
	Outlets []stock_health.OutletID
	stock_health.ItemFilter
}

// IngestResult describes the snapshot produced by an ingest.
type IngestResult struct {
	Version string                  `json:"version"`
	Run     *pipeline.PipelineRun   `json:"run"`
	Outlets []stock_health.OutletID `json:"outlets"`
	Items   int                     `json:"items"`
	Ignored []string                `json:"ignored_files"`
}

// OutletSummary is one entry of the outlet listing.
type OutletSummary struct {
	Outlet   stock_health.OutletID `json:"outlet"`
	Items    int                   `json:"items"`
	HasSales bool                  `json:"has_sales"`
}

// Options wires the optional collaborators of StockHealthService.
type Options struct {
	Views     cache.ViewCache
	Summaries cache.SummaryCache

	Bucket       *storage.Downloader
	BucketPrefix string

	Drive         *drive.Downloader
	DriveFolderID string

	// SourceDir is read by SyncDir when no directory is given.
	SourceDir string

	// WorkDir receives downloaded extracts; each sync gets its own subdirectory.
	WorkDir string
}

// StockHealthService owns the current classification snapshot and the active
// settings. Readers see either the previous or the next snapshot, never a mix.
type StockHealthService struct {
	pipeline *stock_health.StockHealthPipeline
	opts     Options

	// writeMu serializes ingests and settings updates.
	writeMu sync.Mutex

	mu       sync.RWMutex
	settings stock_health.Settings
	snapshot *stock_health.Snapshot
	version  string
}

func NewStockHealthService(p *stock_health.StockHealthPipeline, settings stock_health.Settings, opts Options) (*StockHealthService, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Views == nil {
		opts.Views = cache.NewNoopViewCache()
	}
	if opts.Summaries == nil {
		opts.Summaries = cache.NewNoopSummaryCache()
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "stockhealth")
	}
	return &StockHealthService{
		pipeline: p,
		opts:     opts,
		settings: settings.Clone(),
	}, nil
}

// Settings returns a copy of the active settings.
func (s *StockHealthService) Settings() stock_health.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// UpdateSettings validates and applies next. Invalid settings are rejected and
// the previous ones stay active. A loaded snapshot is recomputed under next.
func (s *StockHealthService) UpdateSettings(ctx context.Context, next stock_health.Settings) (stock_health.Settings, error) {
	if err := next.Validate(); err != nil {
		return s.Settings(), err
	}
	next = next.Clone()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	current := s.snapshot
	s.mu.RUnlock()

	var rebuilt *stock_health.Snapshot
	if current != nil {
		var err error
		rebuilt, err = current.WithSettings(ctx, next)
		if err != nil {
			return s.Settings(), fmt.Errorf("recompute snapshot: %w", err)
		}
	}

	s.mu.Lock()
	s.settings = next
	if rebuilt != nil {
		s.snapshot = rebuilt
		s.version = uuid.NewString()
	}
	s.mu.Unlock()

	s.invalidate(ctx)
	log.Info().
		Int("shortage_days", next.ShortageDays).
		Int("excess_days", next.ExcessDays).
		Ints("horizons", next.Horizons).
		Msg("stock health: settings updated")

	return next.Clone(), nil
}

// Ingest runs the pipeline over local files and replaces the snapshot.
func (s *StockHealthService) Ingest(ctx context.Context, files []string) (*IngestResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	extraction, err := s.pipeline.Extract(ctx, files)
	if err != nil {
		return nil, err
	}

	settings := s.Settings()
	snapshot, err := stock_health.BuildSnapshot(ctx, extraction.Rows, settings)
	if err != nil {
		return nil, err
	}

	version := extraction.Run.ID
	s.mu.Lock()
	s.snapshot = snapshot
	s.version = version
	s.mu.Unlock()

	s.invalidate(ctx)

	result := &IngestResult{
		Version: version,
		Run:     extraction.Run,
		Outlets: snapshot.Outlets(),
		Items:   len(snapshot.Consolidated),
		Ignored: extraction.Ignored,
	}
	if result.Ignored == nil {
		result.Ignored = []string{}
	}
	log.Info().
		Str("version", version).
		Int("outlets", len(result.Outlets)).
		Int("items", result.Items).
		Msg("stock health: snapshot replaced")

	return result, nil
}

// SyncDir ingests every extract found below dir.
func (s *StockHealthService) SyncDir(ctx context.Context, dir string) (*IngestResult, error) {
	if dir == "" {
		dir = s.opts.SourceDir
	}
	files, err := ListExtracts(dir)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, files)
}

// SyncSource ingests the extracts below sub, a directory inside the configured
// source directory. An empty sub syncs the whole source directory. Callers
// outside the process (HTTP) go through here; SyncDir accepts any path.
func (s *StockHealthService) SyncSource(ctx context.Context, sub string) (*IngestResult, error) {
	dir, err := resolveInside(s.opts.SourceDir, sub)
	if err != nil {
		return nil, err
	}
	return s.SyncDir(ctx, dir)
}

// resolveInside joins sub onto root and rejects results that leave root.
func resolveInside(root, sub string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: directory", ErrSourceDisabled)
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve source dir: %w", err)
	}
	if sub == "" {
		return base, nil
	}
	if filepath.IsAbs(sub) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSource, sub)
	}
	target := filepath.Join(base, sub)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSource, sub)
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		realBase, berr := filepath.EvalSymlinks(base)
		if berr != nil {
			realBase = base
		}
		rel, err = filepath.Rel(realBase, resolved)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideSource, sub)
		}
	}
	return target, nil
}

// ListExtracts walks dir and returns the files with a supported extension.
func ListExtracts(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory", ErrSourceDisabled)
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if tabular.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list extracts in %s: %w", dir, err)
	}
	return files, nil
}

// SyncBucket downloads extracts under prefix from object storage and ingests them.
func (s *StockHealthService) SyncBucket(ctx context.Context, prefix string) (*IngestResult, error) {
	if s.opts.Bucket == nil {
		return nil, fmt.Errorf("%w: bucket", ErrSourceDisabled)
	}
	if prefix == "" {
		prefix = s.opts.BucketPrefix
	}
	files, err := s.opts.Bucket.Download(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, files)
}

// PublishReport uploads a rendered report to the configured bucket.
func (s *StockHealthService) PublishReport(ctx context.Context, key string, data []byte) error {
	if s.opts.Bucket == nil {
		return fmt.Errorf("%w: bucket", ErrSourceDisabled)
	}
	if err := s.opts.Bucket.Publish(ctx, key, data); err != nil {
		return err
	}
	log.Info().Str("key", key).Msg("stock health: report published")
	return nil
}

// SyncDrive downloads extracts from a Drive folder and ingests them.
func (s *StockHealthService) SyncDrive(ctx context.Context, folderID string) (*IngestResult, error) {
	if s.opts.Drive == nil {
		return nil, fmt.Errorf("%w: drive", ErrSourceDisabled)
	}
	if folderID == "" {
		folderID = s.opts.DriveFolderID
	}
	files, err := s.opts.Drive.DownloadFolder(ctx, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: filepath.Join(s.opts.WorkDir, "drive", uuid.NewString()),
	})
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, files)
}

func (s *StockHealthService) current() (*stock_health.Snapshot, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, "", ErrNoSnapshot
	}
	return s.snapshot, s.version, nil
}

// View returns the consolidated view for the selected outlets, using the view
// cache when possible.
func (s *StockHealthService) View(ctx context.Context, outlets []stock_health.OutletID) ([]stock_health.ConsolidatedItem, error) {
	snapshot, version, err := s.current()
	if err != nil {
		return nil, err
	}

	key := cache.ViewKey{Version: version, Outlets: outlets}
	if items, ok, err := s.opts.Views.GetView(ctx, key); err == nil && ok {
		return items, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("stock health: cache get view failed")
	}

	items, err := snapshot.View(ctx, outlets)
	if err != nil {
		return nil, err
	}

	if err := s.opts.Views.SetView(ctx, key, items); err != nil {
		log.Warn().Err(err).Msg("stock health: cache set view failed")
	}
	return items, nil
}

// Items returns the filtered consolidated view.
func (s *StockHealthService) Items(ctx context.Context, q ItemQuery) ([]stock_health.ConsolidatedItem, error) {
	items, err := s.View(ctx, q.Outlets)
	if err != nil {
		return nil, err
	}
	return stock_health.FilterItems(items, q.ItemFilter), nil
}

// OutletItems returns the per-outlet classification of one outlet.
func (s *StockHealthService) OutletItems(ctx context.Context, outlet stock_health.OutletID) ([]stock_health.ClassifiedItem, error) {
	snapshot, _, err := s.current()
	if err != nil {
		return nil, err
	}
	items := snapshot.OutletItems(outlet)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutlet, outlet)
	}
	return items, nil
}

// Outlets lists the outlets of the current snapshot.
func (s *StockHealthService) Outlets(ctx context.Context) ([]OutletSummary, error) {
	snapshot, _, err := s.current()
	if err != nil {
		return nil, err
	}
	hasSales := make(map[stock_health.OutletID]bool, len(snapshot.Rows))
	for _, r := range snapshot.Rows {
		hasSales[r.Outlet] = r.HasSales
	}
	counts := make(map[stock_health.OutletID]int)
	for _, item := range snapshot.Items {
		counts[item.OutletID]++
	}

	out := make([]OutletSummary, 0)
	for _, o := range snapshot.Outlets() {
		out = append(out, OutletSummary{Outlet: o, Items: counts[o], HasSales: hasSales[o]})
	}
	return out, nil
}

// Summary counts the items of the selected view per classification.
func (s *StockHealthService) Summary(ctx context.Context, outlets []stock_health.OutletID) (*cache.Summary, error) {
	_, version, err := s.current()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(outlets))
	for i, o := range outlets {
		ids[i] = string(o)
	}

	if summary, ok, err := s.opts.Summaries.GetSummary(ctx, version, ids); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("stock health: cache get summary failed")
	}

	items, err := s.View(ctx, outlets)
	if err != nil {
		return nil, err
	}

	counts := stock_health.CountByClassification(stock_health.ConsolidatedMetrics(items))
	summary := &cache.Summary{
		Version:         version,
		Outlets:         ids,
		TotalItems:      len(items),
		Classifications: make(map[string]int, len(counts)),
	}
	for c, n := range counts {
		summary.Classifications[string(c)] = n
	}

	if err := s.opts.Summaries.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("stock health: cache set summary failed")
	}
	return summary, nil
}

// KnownOutlets lists every outlet the filename resolver recognises.
func (s *StockHealthService) KnownOutlets() []stock_health.OutletID {
	return s.pipeline.Resolver().Outlets()
}

// Runs returns the retained pipeline runs, newest first.
func (s *StockHealthService) Runs(ctx context.Context) []*pipeline.PipelineRun {
	return s.pipeline.Runs().ListPipelineRuns(ctx)
}

// Run returns one pipeline run by ID.
func (s *StockHealthService) Run(ctx context.Context, id string) (*pipeline.PipelineRun, error) {
	return s.pipeline.Runs().GetPipelineRun(ctx, id)
}

// LatestRun returns the most recent pipeline run.
func (s *StockHealthService) LatestRun(ctx context.Context) (*pipeline.PipelineRun, error) {
	return s.pipeline.Runs().GetLatestPipelineRun(ctx, stock_health.PipelineName)
}

func (s *StockHealthService) invalidate(ctx context.Context) {
	if err := s.opts.Views.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("stock health: cache invalidate views failed")
	}
	if err := s.opts.Summaries.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("stock health: cache invalidate summaries failed")
	}
}
