package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockhealth/backend-go/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func classificationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "outlets",
			Usage: "Comma separated outlet IDs to consolidate (default: all)",
		},
		&cli.IntFlag{
			Name:    "shortage-days",
			Usage:   "Days of supply below which an item is in shortage",
			EnvVars: []string{"SHORTAGE_DAYS"},
		},
		&cli.IntFlag{
			Name:    "excess-days",
			Usage:   "Days of supply above which an item is in excess",
			EnvVars: []string{"EXCESS_DAYS"},
		},
		&cli.StringFlag{
			Name:    "horizons",
			Usage:   "Comma separated reorder horizons in days",
			EnvVars: []string{"HORIZONS"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Number of concurrent file decoders",
			EnvVars: []string{"PIPELINE_WORKERS"},
		},
		&cli.BoolFlag{
			Name:  "publish",
			Usage: "Also upload the JSON result to the bucket under reports/<run id>.json",
		},
	}
}

// settingsFromFlags overlays the command line on the configured defaults.
func settingsFromFlags(c *cli.Context, cfg *config.Config) (stock_health.Settings, error) {
	s := cfg.Inventory.Settings()
	if c.IsSet("shortage-days") {
		s.ShortageDays = c.Int("shortage-days")
	}
	if c.IsSet("excess-days") {
		s.ExcessDays = c.Int("excess-days")
	}
	if c.IsSet("horizons") {
		h, err := config.ParseHorizons(c.String("horizons"))
		if err != nil {
			return s, fmt.Errorf("invalid --horizons: %w", err)
		}
		s.Horizons = h
	}
	return s, s.Validate()
}

func parseOutlets(raw string) []stock_health.OutletID {
	var out []stock_health.OutletID
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, stock_health.OutletID(part))
		}
	}
	return out
}

type syncFunc func(ctx context.Context, svc *service.StockHealthService) (*service.IngestResult, error)

func execute(c *cli.Context, sync syncFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Inventory.PipelineWorkers = c.Int("workers")
	}
	settings, err := settingsFromFlags(c, cfg)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	components, err := service.NewFromConfig(ctx, cfg, settings)
	if err != nil {
		return err
	}
	svc := components.StockHealth

	result, err := sync(ctx, svc)
	if err != nil {
		return err
	}

	outlets := parseOutlets(c.String("outlets"))
	items, err := svc.View(ctx, outlets)
	if err != nil {
		return err
	}
	summary, err := svc.Summary(ctx, outlets)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", result.Run.ID).
		Int("processed", result.Run.ProcessedFiles).
		Int("failed", result.Run.FailedFiles).
		Int("skipped", result.Run.SkippedFiles).
		Interface("classifications", summary.Classifications).
		Msg("classification complete")

	report, err := json.MarshalIndent(output{
		Run:      result,
		Settings: settings,
		Outlets:  outlets,
		Summary:  summary.Classifications,
		Items:    items,
	}, "", "  ")
	if err != nil {
		return err
	}

	if c.Bool("publish") {
		if err := svc.PublishReport(ctx, "reports/"+result.Run.ID+".json", report); err != nil {
			return err
		}
	}

	w := c.App.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err = fmt.Fprintln(w, string(report))
	return err
}

type output struct {
	Run      *service.IngestResult           `json:"run"`
	Settings stock_health.Settings           `json:"settings"`
	Outlets  []stock_health.OutletID         `json:"outlets"`
	Summary  map[string]int                  `json:"summary"`
	Items    []stock_health.ConsolidatedItem `json:"items"`
}

func runLocal(c *cli.Context) error {
	dir := c.String("dir")
	return execute(c, func(ctx context.Context, svc *service.StockHealthService) (*service.IngestResult, error) {
		return svc.SyncDir(ctx, dir)
	})
}

func runBucket(c *cli.Context) error {
	prefix := c.String("prefix")
	return execute(c, func(ctx context.Context, svc *service.StockHealthService) (*service.IngestResult, error) {
		return svc.SyncBucket(ctx, prefix)
	})
}

func runDrive(c *cli.Context) error {
	folderID := c.String("folder-id")
	return execute(c, func(ctx context.Context, svc *service.StockHealthService) (*service.IngestResult, error) {
		return svc.SyncDrive(ctx, folderID)
	})
}
