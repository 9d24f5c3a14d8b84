package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Inventory InventoryConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Drive     DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64
}

type AppConfig struct {
	UploadDir   string
	DataDir     string
	SourceDir   string
	DownloadDir string
	LogLevel    string
	LogFormat   string
}

// InventoryConfig holds the classification defaults and pipeline tuning.
type InventoryConfig struct {
	ShortageDays    int
	ExcessDays      int
	Horizons        []int
	PipelineWorkers int
	RetryAttempts   int
	RetryBackoff    time.Duration
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	ViewTTL       time.Duration
}

// StorageConfig points at the S3-compatible bucket holding outlet extracts.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	Region    string
}

type DriveConfig struct {
	Enabled         bool
	CredentialsFile string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

func setDefaults(v *viper.Viper) {
	defaults := stock_health.DefaultSettings()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 64)
	v.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	v.SetDefault("APP_DATA_DIR", "./data/output")
	v.SetDefault("APP_SOURCE_DIR", "./data/extracts")
	v.SetDefault("APP_DOWNLOAD_DIR", "./data/tmp")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SHORTAGE_DAYS", defaults.ShortageDays)
	v.SetDefault("EXCESS_DAYS", defaults.ExcessDays)
	v.SetDefault("HORIZONS", formatInts(defaults.Horizons))
	v.SetDefault("PIPELINE_WORKERS", 4)
	v.SetDefault("RETRY_ATTEMPTS", 2)
	v.SetDefault("RETRY_BACKOFF_MS", 500)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_VIEW_TTL_SECONDS", 300)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_BUCKET", "stock-extracts")
	v.SetDefault("STORAGE_PREFIX", "")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("DRIVE_ENABLED", false)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")
}

// Load reads configuration once from .env and the environment. It fails when
// the inventory defaults do not form valid classification settings.
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)
		v.AutomaticEnv()

		instance, loadErr = fromViper(v)
		if loadErr != nil {
			return
		}

		// Ensure upload and data directories exist
		for _, dir := range []string{instance.App.UploadDir, instance.App.DataDir, instance.App.DownloadDir} {
			if loadErr = ensureDir(dir); loadErr != nil {
				return
			}
		}
	})

	return instance, loadErr
}

func fromViper(v *viper.Viper) (*Config, error) {
	horizons, err := parseInts(v.GetString("HORIZONS"))
	if err != nil {
		return nil, fmt.Errorf("invalid HORIZONS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		App: AppConfig{
			UploadDir:   v.GetString("APP_UPLOAD_DIR"),
			DataDir:     v.GetString("APP_DATA_DIR"),
			SourceDir:   v.GetString("APP_SOURCE_DIR"),
			DownloadDir: v.GetString("APP_DOWNLOAD_DIR"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogFormat:   v.GetString("LOG_FORMAT"),
		},
		Inventory: InventoryConfig{
			ShortageDays:    v.GetInt("SHORTAGE_DAYS"),
			ExcessDays:      v.GetInt("EXCESS_DAYS"),
			Horizons:        horizons,
			PipelineWorkers: v.GetInt("PIPELINE_WORKERS"),
			RetryAttempts:   v.GetInt("RETRY_ATTEMPTS"),
			RetryBackoff:    time.Duration(v.GetInt("RETRY_BACKOFF_MS")) * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			ViewTTL:       time.Duration(v.GetInt("CACHE_VIEW_TTL_SECONDS")) * time.Second,
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Region:    v.GetString("STORAGE_REGION"),
		},
		Drive: DriveConfig{
			Enabled:         v.GetBool("DRIVE_ENABLED"),
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
	}

	if err := cfg.Inventory.Settings().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Settings returns the classification settings configured at startup.
func (c InventoryConfig) Settings() stock_health.Settings {
	return stock_health.Settings{
		ShortageDays: c.ShortageDays,
		ExcessDays:   c.ExcessDays,
		Horizons:     append([]int(nil), c.Horizons...),
	}
}

// parseInts reads a comma separated list such as "30,40,50,60".
func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := cast.ToIntE(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func formatInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = cast.ToString(v)
	}
	return strings.Join(parts, ",")
}

// ParseHorizons parses a comma separated horizon list.
func ParseHorizons(s string) ([]int, error) {
	return parseInts(s)
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
