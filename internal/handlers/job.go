package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clipindex/internal/storage"
	"clipindex/internal/worker"
)

// JobHandler serves the processing-job API.
type JobHandler struct {
	repo *storage.JobRepository
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(repo *storage.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

// List returns recent jobs.
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	jobs, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get returns one job.
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Stats returns job counts by status.
func (h *JobHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, counts)
}

// EventsHandler serves completion signals to polling collaborators.
type EventsHandler struct {
	bus *worker.EventBus
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(bus *worker.EventBus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// Since returns events after the given sequence number.
func (h *EventsHandler) Since(c echo.Context) error {
	var since int64
	if s := c.QueryParam("since"); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = parsed
		}
	}
	events := h.bus.Since(since)
	if events == nil {
		events = []worker.Event{}
	}
	return c.JSON(http.StatusOK, events)
}
