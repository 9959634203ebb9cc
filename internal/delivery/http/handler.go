package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/export"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"github.com/gin-gonic/gin"
)

const serviceName = "hiperalia-ean-processing"

// ProductProcessor runs the single-barcode pipeline
type ProductProcessor interface {
	Process(ctx context.Context, barcode string) (*domain.ProductResult, error)
}

// BatchRunner processes a list of barcodes and streams events to emit
type BatchRunner interface {
	Run(ctx context.Context, barcodes []string, emit domain.EventSink) *domain.BatchResult
}

// HandlerConfig describes the running service for the health endpoint
type HandlerConfig struct {
	Version      string
	Capabilities map[string]bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products ProductProcessor
	batches  BatchRunner
	archives domain.ArchiveStore
	config   HandlerConfig
}

// NewHandler creates a new HTTP handler. archives may be nil when batch
// archives are always sent inline.
func NewHandler(products ProductProcessor, batches BatchRunner, archives domain.ArchiveStore, config HandlerConfig) *Handler {
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	return &Handler{
		products: products,
		batches:  batches,
		archives: archives,
		config:   config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      serviceName,
		"version":      h.config.Version,
		"capabilities": h.config.Capabilities,
	})
}

// ImageResponse is one embedded image variant
type ImageResponse struct {
	Data        string             `json:"data"`
	ContentType string             `json:"content_type"`
	Size        int                `json:"size"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Source      string             `json:"source"`
	SourceURL   string             `json:"source_url,omitempty"`
	Quality     domain.QualityTier `json:"quality"`
}

// FileResponse is an embedded file download
type FileResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Data        string `json:"data"`
}

// ProductResponse is the single-item result
type ProductResponse struct {
	Success     bool                                 `json:"success"`
	Product     *domain.ProductRecord                `json:"product"`
	Images      map[domain.ImageStage]*ImageResponse `json:"images"`
	AIError     string                               `json:"ai_error,omitempty"`
	Warnings    []string                             `json:"warnings,omitempty"`
	Spreadsheet *FileResponse                        `json:"spreadsheet,omitempty"`
	Error       string                               `json:"error,omitempty"`
}

// ProcessProduct handles single-barcode requests
func (h *Handler) ProcessProduct(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.Component(ctx, "http")

	ean := strings.TrimSpace(c.PostForm("ean"))
	if ean == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Form field 'ean' is required"})
		return
	}

	result, err := h.products.Process(ctx, ean)
	if result == nil || result.Record == nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ProductResponse{Error: errorMessage(err)})
		return
	}

	resp := ProductResponse{
		Success:  result.Record.Found,
		Product:  result.Record,
		Images:   make(map[domain.ImageStage]*ImageResponse),
		AIError:  result.AIError,
		Warnings: result.Warnings,
	}
	for _, img := range result.Images {
		resp.Images[img.Stage] = imageResponse(img)
	}

	spreadsheet, sheetErr := export.BuildSpreadsheet([]*domain.ProductRecord{result.Record})
	if sheetErr != nil {
		logger.Error("failed to build spreadsheet", "barcode", result.Record.Barcode, "error", sheetErr)
	} else {
		resp.Spreadsheet = &FileResponse{
			Filename:    fmt.Sprintf("product_%s.xlsx", result.Record.Barcode),
			ContentType: export.SpreadsheetContentType,
			Size:        len(spreadsheet),
			Data:        base64.StdEncoding.EncodeToString(spreadsheet),
		}
	}

	if !result.Record.Found {
		resp.Error = errorMessage(err)
		status := http.StatusBadGateway
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessBatch streams batch progress as server-sent events. The batch runs
// to completion even if the client goes away.
func (h *Handler) ProcessBatch(c *gin.Context) {
	raw := c.PostForm("eans")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form field 'eans' is required"})
		return
	}

	var barcodes []string
	if err := json.Unmarshal([]byte(raw), &barcodes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form field 'eans' must be a JSON array of strings"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(e domain.BatchEvent) {
		c.SSEvent(string(e.Type), e)
		c.Writer.Flush()
	}

	h.batches.Run(context.WithoutCancel(c.Request.Context()), barcodes, emit)
}

// GetArchive streams a stored batch archive once
func (h *Handler) GetArchive(c *gin.Context) {
	if h.archives == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrArchiveNotFound.Error()})
		return
	}

	id := c.Param("id")
	rc, size, err := h.archives.Take(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logging.Component(c.Request.Context(), "http").Error("failed to open archive", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read archive"})
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, size, "application/zip", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="products_%s.zip"`, id),
	})
}

func imageResponse(img *domain.ImageAsset) *ImageResponse {
	return &ImageResponse{
		Data:        base64.StdEncoding.EncodeToString(img.Data),
		ContentType: img.ContentType,
		Size:        len(img.Data),
		Width:       img.Width,
		Height:      img.Height,
		Source:      img.Source,
		SourceURL:   img.SourceURL,
		Quality:     img.Quality,
	}
}

func errorMessage(err error) string {
	if err == nil {
		return domain.ErrNotFound.Error()
	}
	return domain.Reason(err)
}
