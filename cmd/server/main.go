package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"clipindex/internal/app"
	"clipindex/internal/config"
	"clipindex/internal/handlers"
	"clipindex/internal/worker"
)

func main() {
	// Load .env if present.
	_ = godotenv.Load()
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	w := worker.NewWorker(a.Jobs, a.Pipeline, cfg.WorkerSlots)
	w.SetInterval(cfg.WorkerInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	videoHandler := handlers.NewVideoHandler(a.Videos, a.Chunks, w)
	searchHandler := handlers.NewSearchHandler(a.Store, a.Embedder)
	jobHandler := handlers.NewJobHandler(a.Jobs)
	eventsHandler := handlers.NewEventsHandler(a.Events)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.POST("/videos", videoHandler.Register)
	api.GET("/videos", videoHandler.List)
	api.GET("/videos/:id", videoHandler.Get)
	api.GET("/videos/:id/chunks", videoHandler.Chunks)
	api.POST("/videos/:id/process", videoHandler.Process)
	api.POST("/search", searchHandler.Search)
	api.GET("/jobs", jobHandler.List)
	api.GET("/jobs/stats", jobHandler.Stats)
	api.GET("/jobs/:id", jobHandler.Get)
	api.GET("/events", eventsHandler.Since)

	go func() {
		if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
			log.Printf("server stopped: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down")
	case <-ctx.Done():
	}
	_ = e.Close()
}
