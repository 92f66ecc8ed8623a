// Package app wires the pipeline components from configuration. Shared by
// the server and the CLIs.
package app

import (
	"fmt"

	"clipindex/internal/acquire"
	"clipindex/internal/config"
	"clipindex/internal/embed"
	"clipindex/internal/models"
	"clipindex/internal/storage"
	"clipindex/internal/vector"
	"clipindex/internal/worker"
	"clipindex/internal/youtube"
)

// App holds the wired component graph.
type App struct {
	Config   *config.Config
	DB       *storage.DB
	Videos   *storage.VideoRepository
	Chunks   *storage.ChunkRepository
	Jobs     *storage.JobRepository
	Router   *acquire.Router
	Embedder embed.Client
	Store    *vector.Store
	Events   *worker.EventBus
	Pipeline *worker.Pipeline
}

// New opens storage and wires every component.
func New(cfg *config.Config) (*App, error) {
	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure embedding provider: %w", err)
	}

	videos := storage.NewVideoRepository(db)
	chunks := storage.NewChunkRepository(db)
	jobs := storage.NewJobRepository(db)
	router := NewRouter(cfg)
	events := worker.NewEventBus(500)

	pipelineCfg := worker.DefaultPipelineConfig()
	pipelineCfg.MaxAttempts = cfg.MaxAttempts
	pipelineCfg.StageTimeout = cfg.StageTimeout

	return &App{
		Config:   cfg,
		DB:       db,
		Videos:   videos,
		Chunks:   chunks,
		Jobs:     jobs,
		Router:   router,
		Embedder: embedder,
		Store:    vector.NewStore(chunks, embedder.Dimension()),
		Events:   events,
		Pipeline: worker.NewPipeline(videos, jobs, chunks, router, embedder, events, pipelineCfg),
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	return a.DB.Close()
}

// NewRouter wires the acquirer chain from configuration.
func NewRouter(cfg *config.Config) *acquire.Router {
	ytClient := youtube.NewClient()

	yt := acquire.NewYouTubeAcquirer(ytClient, cfg.CaptionLanguage)
	loom := acquire.NewLoomAcquirer(cfg.LoomEndpoint, cfg.StageTimeout)
	vimeo := acquire.NewVimeoAcquirer(cfg.VimeoEndpoint, cfg.VimeoToken, cfg.StageTimeout)
	paid := acquire.NewSTTAcquirer(acquire.STTConfig{
		Endpoint:       cfg.STTEndpoint,
		APIKey:         cfg.STTAPIKey,
		Model:          cfg.STTModel,
		PricePerMinute: cfg.STTPricePerMinute,
		MaxUploadBytes: cfg.STTMaxUploadBytes,
	})

	router := acquire.NewRouter(yt, loom, vimeo, paid)
	router.RegisterAudioFetcher(models.SourceYouTube,
		acquire.NewYouTubeAudioFetcher(ytClient, cfg.DataDir))
	return router
}

// NewEmbedder selects the embedding provider.
func NewEmbedder(cfg *config.Config) (embed.Client, error) {
	switch cfg.EmbeddingProvider {
	case "onnx":
		return embed.NewONNXModel(embed.ONNXConfig{
			ModelPath:     cfg.ONNXModelPath,
			TokenizerPath: cfg.TokenizerPath,
			LibraryPath:   cfg.ONNXLibraryPath,
			Dimension:     cfg.EmbeddingDimension,
		})
	case "http", "":
		return embed.NewHTTPClient(embed.HTTPConfig{
			Endpoint:       cfg.EmbeddingEndpoint,
			APIKey:         cfg.EmbeddingAPIKey,
			Model:          cfg.EmbeddingModel,
			Dimension:      cfg.EmbeddingDimension,
			RequestsPerSec: cfg.EmbeddingRPS,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
