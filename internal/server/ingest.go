package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/coursebuddy/coursebuddy/internal/ingest"
	"github.com/coursebuddy/coursebuddy/internal/store"
	"github.com/coursebuddy/coursebuddy/models"
)

// Ingestor rebuilds and clears a course's vector namespace.
type Ingestor interface {
	Ingest(ctx context.Context, courseID int) (*ingest.Result, error)
	Reset(ctx context.Context, courseID int) error
}

// IngestHandler exposes the ingestion pipeline. Audit is optional; without
// a configured Postgres the status endpoint reports 404.
type IngestHandler struct {
	Ingestor Ingestor
	Audit    *store.Store
	Logger   *log.Logger
}

func (h *IngestHandler) Register(g *echo.Group) {
	g.POST("/:course_id", h.ingest)
	g.DELETE("/:course_id", h.reset)
	g.GET("/:course_id/status", h.status)
}

func (h *IngestHandler) ingest(c echo.Context) error {
	courseID, err := courseParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var runID string
	if h.Audit != nil {
		runID, err = h.Audit.StartIngestion(ctx, courseID)
		if err != nil {
			h.Logger.Printf("course %d: audit start failed: %v", courseID, err)
			runID = ""
		}
	}

	result, err := h.Ingestor.Ingest(ctx, courseID)
	if err != nil {
		ingestionFailures.Inc()
		h.finishAudit(ctx, runID, "", 0, nil, store.IngestionStatusFailed, err.Error())
		if errors.Is(err, models.ErrNoCourseData) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	chunksIndexed.Add(float64(result.ChunkCount))
	h.finishAudit(ctx, runID, result.CourseName, result.ChunkCount, result.Counts, store.IngestionStatusSuccess, "")
	return c.JSON(http.StatusOK, struct {
		Status string `json:"status"`
		*ingest.Result
	}{"ok", result})
}

func (h *IngestHandler) reset(c echo.Context) error {
	courseID, err := courseParam(c)
	if err != nil {
		return err
	}
	if err := h.Ingestor.Reset(c.Request().Context(), courseID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *IngestHandler) status(c echo.Context) error {
	courseID, err := courseParam(c)
	if err != nil {
		return err
	}
	if h.Audit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "ingestion audit log not configured")
	}
	run, ok, err := h.Audit.LatestIngestion(c.Request().Context(), courseID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no ingestion runs for course")
	}
	return c.JSON(http.StatusOK, run)
}

func (h *IngestHandler) finishAudit(ctx context.Context, runID, courseName string, chunkCount int, counts map[string]int, status, errMsg string) {
	if h.Audit == nil || runID == "" {
		return
	}
	if err := h.Audit.FinishIngestion(ctx, runID, courseName, chunkCount, counts, status, errMsg); err != nil {
		h.Logger.Printf("run %s: audit finish failed: %v", runID, err)
	}
}

func courseParam(c echo.Context) (int, error) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil || courseID <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "course_id must be a positive integer")
	}
	return courseID, nil
}
