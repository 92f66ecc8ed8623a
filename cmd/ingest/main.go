// Command ingest registers a video and runs its pipeline synchronously.
// Useful for backfills and for testing a single source end to end.
//
// Usage:
//
//	ingest -creator dev -url https://www.youtube.com/watch?v=xxxx
//	ingest -creator dev -file lecture.m4a -duration 3600
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"clipindex/internal/app"
	"clipindex/internal/classify"
	"clipindex/internal/config"
	"clipindex/internal/models"
)

func main() {
	creator := flag.String("creator", "", "creator id (required)")
	title := flag.String("title", "", "video title")
	url := flag.String("url", "", "source url")
	file := flag.String("file", "", "local media file path")
	duration := flag.Float64("duration", 0, "known duration in seconds")
	sourceType := flag.String("source-type", "", "explicit source type, otherwise classified from the url")
	flag.Parse()

	if *creator == "" {
		log.Fatal("-creator is required")
	}

	_ = godotenv.Load()
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	ctx := context.Background()

	st, err := classify.Classify(models.SourceType(*sourceType), *url, *file)
	if err != nil {
		log.Fatalf("classify source: %v", err)
	}

	video := &models.Video{
		CreatorID:       *creator,
		Title:           *title,
		SourceType:      st,
		SourceURL:       *url,
		FilePath:        *file,
		DurationSeconds: *duration,
	}
	if err := a.Videos.Create(ctx, video); err != nil {
		log.Fatalf("create video: %v", err)
	}
	log.Printf("registered video %s (source %s)", video.ID, st)

	job, _, err := a.Jobs.CreateOrGetActive(ctx, video.ID)
	if err != nil {
		log.Fatalf("enqueue job: %v", err)
	}

	// Run synchronously; the job reaches its terminal state inside Run.
	if err := a.Pipeline.Run(ctx, job); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	final, err := a.Videos.GetByID(ctx, video.ID)
	if err != nil {
		log.Fatalf("reload video: %v", err)
	}
	count, err := a.Chunks.CountForVideo(ctx, video.ID)
	if err != nil {
		log.Fatalf("count chunks: %v", err)
	}

	log.Printf("done: status=%s method=%s cost=$%.4f duration=%.1fs chunks=%d",
		final.Status, final.TranscriptMethod, final.TranscriptCost,
		final.DurationSeconds, count)
}
