package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockhealth/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type StockHealthHandler struct {
	service   *service.StockHealthService
	uploadDir string
}

func NewStockHealthHandler(service *service.StockHealthService, uploadDir string) *StockHealthHandler {
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "stockhealth-uploads")
	}
	return &StockHealthHandler{service: service, uploadDir: uploadDir}
}

// parseOutlets accepts ?outlets=A,B as well as repeated ?outlets=A&outlets=B.
func parseOutlets(c *gin.Context) []stock_health.OutletID {
	var out []stock_health.OutletID
	for _, raw := range c.QueryArray("outlets") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				out = append(out, stock_health.OutletID(part))
			}
		}
	}
	return out
}

func (h *StockHealthHandler) GetItems(c *gin.Context) {
	query := service.ItemQuery{Outlets: parseOutlets(c)}

	if raw := strings.ToLower(strings.TrimSpace(c.Query("classification"))); raw != "" {
		cls, ok := stock_health.ParseClassification(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown classification %q", raw)})
			return
		}
		query.Classification = cls
	}
	query.Query = c.Query("q")

	items, err := h.service.Items(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *StockHealthHandler) GetOutlets(c *gin.Context) {
	outlets, err := h.service.Outlets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outlets": outlets,
		"known":   h.service.KnownOutlets(),
	})
}

func (h *StockHealthHandler) GetOutletItems(c *gin.Context) {
	outlet := stock_health.OutletID(strings.ToUpper(strings.TrimSpace(c.Param("outlet"))))
	items, err := h.service.OutletItems(c.Request.Context(), outlet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outlet": outlet,
		"items":  items,
		"total":  len(items),
	})
}

func (h *StockHealthHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), parseOutlets(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *StockHealthHandler) GetLatestRun(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *StockHealthHandler) ListRuns(c *gin.Context) {
	runs := h.service.Runs(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

func (h *StockHealthHandler) GetRun(c *gin.Context) {
	run, err := h.service.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *StockHealthHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Settings())
}

func (h *StockHealthHandler) UpdateSettings(c *gin.Context) {
	var req stock_health.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload: " + err.Error()})
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, stock_health.ErrInvalidSettings) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    err.Error(),
				"settings": settings,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Ingest stores the uploaded extracts in a fresh directory and classifies them.
func (h *StockHealthHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required: " + err.Error()})
		return
	}

	uploads := append(form.File["files"], form.File["files[]"]...)
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	dir := filepath.Join(h.uploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondError(c, fmt.Errorf("prepare upload dir: %w", err))
		return
	}

	paths := make([]string, 0, len(uploads))
	seen := make(map[string]int, len(uploads))
	for _, fh := range uploads {
		name := filepath.Base(filepath.Clean(fh.Filename))
		if name == "." || name == string(filepath.Separator) {
			continue
		}
		name = uniqueUploadName(seen, name)
		dst := filepath.Join(dir, name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			respondError(c, fmt.Errorf("save upload %s: %w", name, err))
			return
		}
		paths = append(paths, dst)
	}

	zerolog.Ctx(c.Request.Context()).Info().Int("files", len(paths)).Str("dir", dir).Msg("stock health: upload received")

	result, err := h.service.Ingest(c.Request.Context(), paths)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// uniqueUploadName suffixes repeated file names with an index so uploads in one
// request never overwrite each other: a second "listado_centro.csv" is stored
// as "listado_centro_2.csv".
func uniqueUploadName(seen map[string]int, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; seen[strings.ToLower(candidate)] > 0; n++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	seen[strings.ToLower(candidate)]++
	return candidate
}

type syncRequest struct {
	Source   string `json:"source"`
	Dir      string `json:"dir"`
	Prefix   string `json:"prefix"`
	FolderID string `json:"folder_id"`
}

// Sync pulls extracts from a configured source: "dir" (default), "bucket" or "drive".
// A "dir" must name a directory inside the configured source directory.
func (h *StockHealthHandler) Sync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sync payload: " + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	var (
		result *service.IngestResult
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(req.Source)) {
	case "", "dir":
		result, err = h.service.SyncSource(ctx, req.Dir)
	case "bucket":
		result, err = h.service.SyncBucket(ctx, req.Prefix)
	case "drive":
		result, err = h.service.SyncDrive(ctx, req.FolderID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown source %q", req.Source)})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoSnapshot),
		errors.Is(err, service.ErrUnknownOutlet),
		errors.Is(err, pipeline.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSourceDisabled),
		errors.Is(err, service.ErrOutsideSource):
		status = http.StatusBadRequest
	case errors.Is(err, stock_health.ErrInvalidSettings):
		status = http.StatusUnprocessableEntity
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
