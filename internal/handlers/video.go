package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clipindex/internal/classify"
	"clipindex/internal/models"
	"clipindex/internal/storage"
	"clipindex/internal/worker"
)

// VideoHandler serves video registration, triggering and status.
type VideoHandler struct {
	videos *storage.VideoRepository
	chunks *storage.ChunkRepository
	worker *worker.Worker
}

// NewVideoHandler creates a VideoHandler.
func NewVideoHandler(videos *storage.VideoRepository, chunks *storage.ChunkRepository, w *worker.Worker) *VideoHandler {
	return &VideoHandler{videos: videos, chunks: chunks, worker: w}
}

type registerVideoRequest struct {
	ID              string  `json:"id"`
	CreatorID       string  `json:"creator_id"`
	Title           string  `json:"title"`
	SourceType      string  `json:"source_type"`
	URL             string  `json:"url"`
	FilePath        string  `json:"file_path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type triggerResponse struct {
	Video *models.Video         `json:"video"`
	Job   *models.ProcessingJob `json:"job"`
	New   bool                  `json:"new_job"`
}

// Register accepts the trigger contract: registers a video (unless the id
// already exists) and enqueues its pipeline. Re-triggering a video with an
// active job returns that job, it never spawns a duplicate run.
func (h *VideoHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerVideoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.CreatorID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "creator_id is required"})
	}

	video, err := h.findOrCreate(c, &req)
	if err != nil {
		return err // findOrCreate already wrote the response
	}
	if video == nil {
		return nil
	}

	job, created, err := h.worker.Enqueue(ctx, video.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	return c.JSON(status, triggerResponse{Video: video, Job: job, New: created})
}

func (h *VideoHandler) findOrCreate(c echo.Context, req *registerVideoRequest) (*models.Video, error) {
	ctx := c.Request().Context()

	if req.ID != "" {
		existing, err := h.videos.GetByID(ctx, req.ID)
		if err != nil {
			return nil, c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if existing != nil {
			return existing, nil
		}
	}

	sourceType, err := classify.Classify(models.SourceType(req.SourceType), req.URL, req.FilePath)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	video := &models.Video{
		ID:              req.ID,
		CreatorID:       req.CreatorID,
		Title:           req.Title,
		SourceType:      sourceType,
		SourceURL:       req.URL,
		FilePath:        req.FilePath,
		DurationSeconds: req.DurationSeconds,
	}
	if err := h.videos.Create(ctx, video); err != nil {
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return video, nil
}

// Process enqueues a pipeline run for an existing video (idempotent).
func (h *VideoHandler) Process(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	video, err := h.videos.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if video == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "video not found"})
	}

	job, created, err := h.worker.Enqueue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	return c.JSON(status, triggerResponse{Video: video, Job: job, New: created})
}

// Get serves the status contract for polling collaborators.
func (h *VideoHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	video, err := h.videos.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if video == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "video not found"})
	}
	return c.JSON(http.StatusOK, video)
}

// Chunks lists a video's stored chunks without embeddings.
func (h *VideoHandler) Chunks(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	chunks, err := h.chunks.ListByVideos(ctx, []string{id})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, chunks)
}

// List returns a creator's videos.
func (h *VideoHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	creatorID := c.QueryParam("creator_id")
	if creatorID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "creator_id is required"})
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	videos, err := h.videos.ListByCreator(ctx, creatorID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, videos)
}
