package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"clipindex/internal/models"
	"clipindex/internal/storage"
)

// Worker polls the job queue and runs the pipeline. Multiple slots process
// different videos concurrently; the per-video exclusivity comes from the
// job table (one active job per video, claims are compare-and-set), not
// from any lock here.
type Worker struct {
	jobs     *storage.JobRepository
	pipeline *Pipeline
	interval time.Duration
	slots    int
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a worker with the given number of concurrent slots.
func NewWorker(jobs *storage.JobRepository, pipeline *Pipeline, slots int) *Worker {
	if slots <= 0 {
		slots = 2
	}
	return &Worker{
		jobs:     jobs,
		pipeline: pipeline,
		interval: 1 * time.Second,
		slots:    slots,
		stop:     make(chan struct{}),
	}
}

// SetInterval sets the queue polling interval.
func (w *Worker) SetInterval(interval time.Duration) {
	w.interval = interval
}

// Enqueue registers a pipeline run for a video. Idempotent: a video with an
// active job gets that job back and no second run is spawned.
func (w *Worker) Enqueue(ctx context.Context, videoID string) (*models.ProcessingJob, bool, error) {
	job, created, err := w.jobs.CreateOrGetActive(ctx, videoID)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Printf("worker: job %s queued for video %s", job.ID, videoID)
	} else {
		log.Printf("worker: video %s already has active job %s", videoID, job.ID)
	}
	return job, created, nil
}

// Start launches the worker slots.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.slots; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	log.Printf("worker: started with %d slots", w.slots)
}

// Stop gracefully stops the worker, waiting for in-flight runs.
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	log.Println("worker: stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

func (w *Worker) processNext(ctx context.Context) {
	job, err := w.jobs.ClaimNextQueued(ctx)
	if err != nil {
		log.Printf("worker: claim next job: %v", err)
		return
	}
	if job == nil {
		return
	}

	log.Printf("worker: running job %s (video %s)", job.ID, job.VideoID)
	if err := w.pipeline.Run(ctx, job); err != nil {
		// Run already persisted the terminal state; nothing to do but log.
		log.Printf("worker: job %s finished with error: %v", job.ID, err)
	}
}
