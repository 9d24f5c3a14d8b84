package stock_health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline"
	"github.com/andresuchdata/stockhealth/backend-go/internal/tabular"
	"github.com/rs/zerolog/log"
)

// PipelineName identifies stock health runs in the run repository.
const PipelineName = "stock_health"

// StockHealthPipeline implements the generic pipeline.Pipeline interface for
// outlet stock and sales extracts.
type StockHealthPipeline struct {
	resolver     *Resolver
	orchestrator *pipeline.Orchestrator[NormalizedRow]
}

// NewStockHealthPipeline creates a new stock health pipeline instance.
func NewStockHealthPipeline(resolver *Resolver, cfg pipeline.PipelineConfig, repo *pipeline.Repository) *StockHealthPipeline {
	if resolver == nil {
		resolver = NewResolver()
	}
	if cfg.Name == "" {
		cfg.Name = PipelineName
	}
	return &StockHealthPipeline{
		resolver:     resolver,
		orchestrator: pipeline.NewOrchestrator[NormalizedRow](repo, cfg),
	}
}

// Name returns the unique identifier of this pipeline.
func (p *StockHealthPipeline) Name() string {
	return PipelineName
}

// Resolver returns the filename resolver used by the pipeline.
func (p *StockHealthPipeline) Resolver() *Resolver {
	return p.resolver
}

// Runs returns the run history of this pipeline.
func (p *StockHealthPipeline) Runs() *pipeline.Repository {
	return p.orchestrator.Repository()
}

// Validate rejects directories and missing files, and skips files whose name
// or extension is not recognised.
func (p *StockHealthPipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	if !tabular.Supported(inputFile) {
		return fmt.Errorf("%w: unsupported extension %s", pipeline.ErrSkipFile, filepath.Ext(inputFile))
	}
	if _, _, ok := p.resolver.Resolve(inputFile); !ok {
		return fmt.Errorf("%w: no outlet or role in %s", pipeline.ErrSkipFile, filepath.Base(inputFile))
	}
	return nil
}

// Transform decodes one extract and normalizes its rows.
func (p *StockHealthPipeline) Transform(ctx context.Context, inputFile string) ([]NormalizedRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decoded, err := tabular.DecodeFile(inputFile)
	if err != nil {
		return nil, err
	}
	raws := make([]RawRow, len(decoded))
	for i, r := range decoded {
		raws[i] = RawRow(r)
	}
	return NormalizeRows(raws), nil
}

// Extraction is the outcome of reading a batch of extracts.
type Extraction struct {
	Run     *pipeline.PipelineRun
	Rows    []OutletRows
	Ignored []string
}

// Extract runs the pipeline over files and assembles per-outlet rows. An outlet
// whose stock files all failed to decode is left out.
func (p *StockHealthPipeline) Extract(ctx context.Context, files []string) (*Extraction, error) {
	run, batch, err := p.orchestrator.Run(ctx, p, files)
	if err != nil {
		return nil, err
	}

	groups, ignored := p.resolver.GroupFiles(batch.Files)
	out := &Extraction{Run: run, Ignored: ignored}
	for _, g := range groups {
		o := OutletRows{Outlet: g.Outlet}
		for _, f := range g.StockFiles {
			o.Stock = append(o.Stock, batch.Rows[f]...)
		}
		for _, f := range g.SalesFiles {
			o.Sales = append(o.Sales, batch.Rows[f]...)
			o.HasSales = true
		}
		if len(o.Stock) == 0 {
			log.Warn().Str("outlet", string(o.Outlet)).Msg("outlet has no stock rows, skipping")
			continue
		}
		out.Rows = append(out.Rows, o)
	}

	log.Info().
		Str("run_id", run.ID).
		Int("outlets", len(out.Rows)).
		Int("ignored_files", len(ignored)).
		Msg("extraction complete")

	return out, nil
}
