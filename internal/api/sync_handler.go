package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/service"
)

// SyncHandler handles sync run endpoints
type SyncHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "sync").Logger(),
	}
}

// CreateSync handles POST /v1/syncs. The run is queued and picked up by the
// processor; the response carries its id for polling.
func (h *SyncHandler) CreateSync(c *gin.Context) {
	ctx := c.Request.Context()
	idempotencyKey := c.GetHeader("Idempotency-Key")

	if idempotencyKey != "" {
		existing, err := h.services.Run.GetRunByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to check idempotency key")
		}
		if existing != nil {
			h.log.Info().Str("run_id", existing.ID).Msg("Returning existing run for idempotency key")
			c.JSON(http.StatusOK, existing)
			return
		}
	}

	// The body is optional; an empty POST queues a regular run.
	var req models.RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	req.IdempotencyKey = idempotencyKey

	if !req.DryRun && !h.cfg.Sync.DryRun && h.cfg.Notion.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NOTION_TOKEN is not configured; only dry runs are possible"})
		return
	}

	run, err := h.services.Run.CreateRun(ctx, &req, models.TriggerAPI)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create sync run"})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// ListSyncs handles GET /v1/syncs
func (h *SyncHandler) ListSyncs(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runs, err := h.services.Run.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

// GetSyncStatus handles GET /v1/syncs/:run_id
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := h.services.Run.GetRun(c.Request.Context(), runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run status"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetSyncFiles handles GET /v1/syncs/:run_id/files. format=csv streams the
// outcomes as CSV instead of JSON.
func (h *SyncHandler) GetSyncFiles(c *gin.Context) {
	ctx := c.Request.Context()
	runID := c.Param("run_id")

	run, err := h.services.Run.GetRun(ctx, runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	limit, err := queryLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files, err := h.services.Run.GetRunFiles(ctx, runID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run files")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get files"})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=files_%s.csv", runID))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"notion_id", "slug", "path", "outcome", "reason"})
		for _, f := range files {
			writer.Write([]string{f.NotionID, f.Slug, f.Path, string(f.Outcome), f.Reason})
		}
		writer.Flush()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     runID,
		"file_count": len(files),
		"files":      files,
	})
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return limit, nil
}
