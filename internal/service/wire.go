package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockhealth/backend-go/internal/cache"
	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/drive"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockhealth/backend-go/internal/storage"
	"github.com/andresuchdata/stockhealth/backend-go/internal/tabular"
	"github.com/rs/zerolog/log"
)

// Components is everything NewFromConfig wires together.
type Components struct {
	StockHealth *StockHealthService
	Drive       *drive.Service
}

// NewFromConfig builds the stock health service with the sources and caches
// enabled in cfg. settings replaces the configured classification defaults.
func NewFromConfig(ctx context.Context, cfg *config.Config, settings stock_health.Settings) (*Components, error) {
	pcfg := pipeline.DefaultPipelineConfig(stock_health.PipelineName)
	if cfg.Inventory.PipelineWorkers > 0 {
		pcfg.WorkerCount = cfg.Inventory.PipelineWorkers
	}
	if cfg.Inventory.RetryAttempts > 0 {
		pcfg.RetryAttempts = cfg.Inventory.RetryAttempts
	}
	if cfg.Inventory.RetryBackoff > 0 {
		pcfg.RetryBackoff = cfg.Inventory.RetryBackoff
	}
	p := stock_health.NewStockHealthPipeline(stock_health.NewResolver(), pcfg, pipeline.NewRepository(0))

	views, err := cache.NewViewCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("view cache: %w", err)
	}
	summaries, err := cache.NewSummaryCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("summary cache: %w", err)
	}

	opts := Options{
		Views:         views,
		Summaries:     summaries,
		SourceDir:     cfg.App.SourceDir,
		WorkDir:       cfg.App.DownloadDir,
		BucketPrefix:  cfg.Storage.Prefix,
		DriveFolderID: cfg.Drive.FolderID,
	}
	out := &Components{}

	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		opts.Bucket, err = storage.NewDownloader(client, filepath.Join(cfg.App.DownloadDir, "bucket"), tabular.Supported)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("object storage source enabled")
	}

	if cfg.Drive.Enabled {
		creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		out.Drive, err = drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		opts.Drive = drive.NewDownloader(out.Drive)
		log.Info().Str("folder_id", cfg.Drive.FolderID).Msg("google drive source enabled")
	}

	out.StockHealth, err = NewStockHealthService(p, settings, opts)
	if err != nil {
		return nil, err
	}
	return out, nil
}
