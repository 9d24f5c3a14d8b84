package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockhealth/backend-go/internal/api/handlers"
	"github.com/andresuchdata/stockhealth/backend-go/internal/api/middleware"
	"github.com/andresuchdata/stockhealth/backend-go/internal/drive"
	"github.com/andresuchdata/stockhealth/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	StockHealthService *service.StockHealthService
	DriveService       *drive.Service
}

// RouterOptions carries the HTTP-level settings of the router.
type RouterOptions struct {
	AllowedOrigins []string
	UploadDir      string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.StockHealthService != nil {
			stockHealthHandler := handlers.NewStockHealthHandler(services.StockHealthService, opts.UploadDir)
			stockHealthGroup := apiGroup.Group("/stock_health")
			{
				stockHealthGroup.POST("/ingest", stockHealthHandler.Ingest)
				stockHealthGroup.POST("/sync", stockHealthHandler.Sync)
				stockHealthGroup.GET("/items", stockHealthHandler.GetItems)
				stockHealthGroup.GET("/outlets", stockHealthHandler.GetOutlets)
				stockHealthGroup.GET("/outlets/:outlet/items", stockHealthHandler.GetOutletItems)
				stockHealthGroup.GET("/summary", stockHealthHandler.GetSummary)
				stockHealthGroup.GET("/runs", stockHealthHandler.ListRuns)
				stockHealthGroup.GET("/runs/latest", stockHealthHandler.GetLatestRun)
				stockHealthGroup.GET("/runs/:id", stockHealthHandler.GetRun)
				stockHealthGroup.GET("/settings", stockHealthHandler.GetSettings)
				stockHealthGroup.PUT("/settings", stockHealthHandler.UpdateSettings)
			}
		}

		if services.DriveService != nil {
			drive.NewHandler(services.DriveService).RegisterRoutes(apiGroup)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
