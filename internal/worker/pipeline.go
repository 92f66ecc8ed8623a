package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clipindex/internal/acquire"
	"clipindex/internal/embed"
	"clipindex/internal/models"
	"clipindex/internal/segment"
	"clipindex/internal/storage"
)

// PipelineConfig tunes the per-video run.
type PipelineConfig struct {
	MaxAttempts    int           // bound on retries of transient failures
	InitialBackoff time.Duration // first retry wait, doubled per attempt
	MaxBackoff     time.Duration
	StageTimeout   time.Duration // per external call (acquire, embed)
	Segment        segment.Config
}

// DefaultPipelineConfig returns the standard pipeline bounds.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		StageTimeout:   5 * time.Minute,
		Segment:        segment.DefaultConfig(),
	}
}

// Pipeline drives one video through acquisition, segmentation, embedding and
// persistence. It is the only mutator of video status and error_message.
// Every transition is persisted (compare-and-set) before the next stage
// begins, so a crash leaves a resumable, observable state.
type Pipeline struct {
	videos   *storage.VideoRepository
	jobs     *storage.JobRepository
	chunks   *storage.ChunkRepository
	router   *acquire.Router
	embedder embed.Client
	events   *EventBus
	cfg      PipelineConfig
}

// NewPipeline wires the pipeline.
func NewPipeline(
	videos *storage.VideoRepository,
	jobs *storage.JobRepository,
	chunks *storage.ChunkRepository,
	router *acquire.Router,
	embedder embed.Client,
	events *EventBus,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 5 * time.Minute
	}
	return &Pipeline{
		videos:   videos,
		jobs:     jobs,
		chunks:   chunks,
		router:   router,
		embedder: embedder,
		events:   events,
		cfg:      cfg,
	}
}

// Run executes the pipeline for a claimed job. The returned error is the
// final underlying failure; by the time Run returns, video and job rows are
// already in their terminal state.
func (p *Pipeline) Run(ctx context.Context, job *models.ProcessingJob) error {
	video, err := p.videos.GetByID(ctx, job.VideoID)
	if err != nil {
		return p.fail(ctx, job, job.VideoID, acquire.WrapError(acquire.KindInternal, "load video", err))
	}
	if video == nil {
		return p.fail(ctx, job, job.VideoID, acquire.NewError(acquire.KindInternal, "video not found"))
	}

	run := &stageRunner{videos: p.videos, videoID: video.ID, cur: video.Status}

	// Stage: transcribing.
	if err := run.to(ctx, models.VideoStatusTranscribing); err != nil {
		return p.fail(ctx, job, video.ID, err)
	}

	ref := acquire.Reference{
		VideoID:         video.ID,
		SourceType:      video.SourceType,
		URL:             video.SourceURL,
		FilePath:        video.FilePath,
		DurationSeconds: video.DurationSeconds,
	}
	hooks := &acquire.RouteHooks{
		BeforeAudioFetch: func() {
			// Binary transport is only needed on the paid detour; record it.
			if err := run.to(ctx, models.VideoStatusUploading); err != nil {
				log.Printf("pipeline: video %s: %v", video.ID, err)
			}
		},
		AudioFetched: func(path string) {
			// Persist the landing spot so retries and later reprocessing
			// runs skip the download.
			ref.FilePath = path
			if err := p.videos.SetFilePath(ctx, video.ID, path); err != nil {
				log.Printf("pipeline: video %s: persist audio path: %v", video.ID, err)
			}
		},
		BeforePaidCall: func(estimatedUSD float64) error {
			log.Printf("pipeline: video %s: paid transcription estimated at $%.4f", video.ID, estimatedUSD)
			if run.cur == models.VideoStatusUploading {
				return run.to(ctx, models.VideoStatusTranscribing)
			}
			return nil
		},
	}

	var result *models.TranscriptResult
	err = p.withRetry(ctx, job, func(opCtx context.Context) error {
		r, rerr := p.router.Route(opCtx, ref, hooks)
		if rerr != nil {
			return rerr
		}
		result = r
		return nil
	})
	if err != nil {
		return p.fail(ctx, job, video.ID, err)
	}

	duration := video.DurationSeconds
	if duration <= 0 {
		duration = result.Duration()
	}
	if err := p.videos.SetTranscript(ctx, video.ID, result, duration); err != nil {
		return p.fail(ctx, job, video.ID, acquire.WrapError(acquire.KindInternal, "persist transcript", err))
	}

	// Stage: processing (segmentation).
	if err := run.to(ctx, models.VideoStatusProcessing); err != nil {
		return p.fail(ctx, job, video.ID, err)
	}
	chunks := segment.Split(video.ID, result, duration, p.cfg.Segment)
	if len(chunks) == 0 {
		return p.fail(ctx, job, video.ID,
			acquire.NewError(acquire.KindInternal, "transcript produced no chunks"))
	}

	// Stage: embedding.
	if err := run.to(ctx, models.VideoStatusEmbedding); err != nil {
		return p.fail(ctx, job, video.ID, err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	var vectors [][]float32
	err = p.withRetry(ctx, job, func(opCtx context.Context) error {
		v, eerr := p.embedder.Embed(opCtx, texts)
		if eerr != nil {
			return eerr
		}
		vectors = v
		return nil
	})
	if err != nil {
		return p.fail(ctx, job, video.ID, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := p.chunks.ReplaceForVideo(ctx, video.ID, chunks); err != nil {
		return p.fail(ctx, job, video.ID, acquire.WrapError(acquire.KindInternal, "persist chunks", err))
	}

	// Stage: completed.
	if err := run.to(ctx, models.VideoStatusCompleted); err != nil {
		return p.fail(ctx, job, video.ID, err)
	}
	if err := p.jobs.Complete(ctx, job.ID); err != nil {
		log.Printf("pipeline: complete job %s: %v", job.ID, err)
	}

	p.events.Publish(Event{
		Type:       EventVideoCompleted,
		VideoID:    video.ID,
		JobID:      job.ID,
		CostUSD:    result.CostUSD,
		ChunkCount: len(chunks),
	})
	log.Printf("pipeline: video %s completed (%d chunks, method %s, $%.4f)",
		video.ID, len(chunks), result.Method, result.CostUSD)
	return nil
}

// withRetry runs op, retrying transient failures with exponential backoff up
// to the attempt bound. Attempts persist on the job row so a resumed job
// keeps counting. The op context is detached from caller cancellation:
// metered calls run to completion, cancellation is honored only at stage
// boundaries.
func (p *Pipeline) withRetry(ctx context.Context, job *models.ProcessingJob, op func(context.Context) error) error {
	backoff := p.cfg.InitialBackoff
	for {
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.StageTimeout)
		err := op(opCtx)
		cancel()
		if err == nil {
			return nil
		}

		kind := acquire.KindOf(err)
		if !kind.Retryable() {
			return err
		}

		job.AttemptCount++
		if ierr := p.jobs.IncrementAttempt(ctx, job.ID, err.Error()); ierr != nil {
			log.Printf("pipeline: record attempt for job %s: %v", job.ID, ierr)
		}
		if job.AttemptCount >= p.cfg.MaxAttempts {
			return err
		}

		log.Printf("pipeline: job %s attempt %d/%d failed (%s), retrying in %s",
			job.ID, job.AttemptCount, p.cfg.MaxAttempts, kind, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > p.cfg.MaxBackoff {
			backoff = p.cfg.MaxBackoff
		}
	}
}

// fail moves video and job to their failed terminal states and emits the
// failure signal. Collaborators get a generic message plus the structured
// kind; the raw error only goes to the job row and the log.
//
// A lost CAS is the exception: the video belongs to a newer task now, so
// only this run's job fails and the video row stays untouched.
func (p *Pipeline) fail(ctx context.Context, job *models.ProcessingJob, videoID string, cause error) error {
	if errors.Is(cause, errStaleRun) {
		if err := p.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
			log.Printf("pipeline: fail job %s: %v", job.ID, err)
		}
		log.Printf("pipeline: video %s: run superseded: %v", videoID, cause)
		return cause
	}

	kind := acquire.KindOf(cause)
	message := fmt.Sprintf("video processing failed (%s)", kind)

	if err := p.videos.MarkFailed(ctx, videoID, message); err != nil {
		log.Printf("pipeline: mark video %s failed: %v", videoID, err)
	}
	if err := p.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		log.Printf("pipeline: fail job %s: %v", job.ID, err)
	}

	p.events.Publish(Event{
		Type:      EventVideoFailed,
		VideoID:   videoID,
		JobID:     job.ID,
		ErrorKind: string(kind),
		Message:   message,
	})
	log.Printf("pipeline: video %s failed: %v", videoID, cause)
	return cause
}

// errStaleRun marks a lost status CAS: another task advanced the video, so
// this run must stand down without writing to the row again.
var errStaleRun = errors.New("stale run")

// stageRunner applies persisted compare-and-set transitions for one run.
type stageRunner struct {
	videos  *storage.VideoRepository
	videoID string
	cur     string
}

// to advances the video to next. Cancellation is checked here, at the stage
// boundary. A lost CAS means another task moved the row; that is fatal for
// this run.
func (r *stageRunner) to(ctx context.Context, next string) error {
	if err := ctx.Err(); err != nil {
		return acquire.WrapError(acquire.KindInternal, "run cancelled", err)
	}

	ok, err := r.videos.UpdateStatusCAS(ctx, r.videoID, r.cur, next)
	if err != nil {
		return acquire.WrapError(acquire.KindInternal, "persist status transition", err)
	}
	if !ok {
		return acquire.WrapError(acquire.KindInternal,
			fmt.Sprintf("video left status %q before transition to %q", r.cur, next),
			errStaleRun)
	}
	r.cur = next
	return nil
}
