package drive

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes read-only Drive browsing so operators can check which
// extracts a sync would pick up.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/drive/files", h.ListFiles)
}

func (h *Handler) ListFiles(c *gin.Context) {
	ctx := c.Request.Context()
	folderID := c.Query("folderId")

	if folderPath := c.Query("path"); folderPath != "" {
		id, err := h.service.FindFolderByPath(ctx, folderPath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		folderID = id
	}

	files, err := h.service.ListFiles(ctx, folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type listed struct {
		*File
		Extract bool `json:"extract"`
	}
	out := make([]listed, 0, len(files))
	for _, f := range files {
		out = append(out, listed{File: f, Extract: localName(f) != ""})
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}
