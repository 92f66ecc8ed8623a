// Package config reads environment configuration. Entry points load .env
// via godotenv before calling Load.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Port         string
	DatabasePath string
	DataDir      string

	WorkerInterval time.Duration
	WorkerSlots    int
	MaxAttempts    int
	StageTimeout   time.Duration

	CaptionLanguage string

	EmbeddingProvider  string // "http" or "onnx"
	EmbeddingEndpoint  string
	EmbeddingAPIKey    string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingRPS       float64
	TokenizerPath      string
	ONNXModelPath      string
	ONNXLibraryPath    string

	STTEndpoint       string
	STTAPIKey         string
	STTModel          string
	STTPricePerMinute float64
	STTMaxUploadBytes int64

	LoomEndpoint  string
	VimeoEndpoint string
	VimeoToken    string
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:         getenv("PORT", "8080"),
		DatabasePath: getenv("DATABASE_PATH", "data/clipindex.db"),
		DataDir:      getenv("DATA_DIR", "data"),

		WorkerInterval: time.Duration(getint("WORKER_INTERVAL_MS", 1000)) * time.Millisecond,
		WorkerSlots:    getint("WORKER_SLOTS", 2),
		MaxAttempts:    getint("MAX_ATTEMPTS", 3),
		StageTimeout:   time.Duration(getint("ACQUIRE_TIMEOUT_MS", 300000)) * time.Millisecond,

		CaptionLanguage: getenv("CAPTION_LANGUAGE", "en"),

		EmbeddingProvider:  getenv("EMBEDDING_PROVIDER", "http"),
		EmbeddingEndpoint:  getenv("EMBEDDING_ENDPOINT", "https://api.openai.com/v1/embeddings"),
		EmbeddingAPIKey:    os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:     getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: getint("EMBEDDING_DIMENSION", 1536),
		EmbeddingRPS:       getfloat("EMBEDDING_RPS", 5),
		TokenizerPath:      os.Getenv("TOKENIZER_PATH"),
		ONNXModelPath:      os.Getenv("ONNX_MODEL_PATH"),
		ONNXLibraryPath:    os.Getenv("ONNX_LIBRARY_PATH"),

		STTEndpoint:       getenv("STT_ENDPOINT", "https://api.openai.com/v1/audio/transcriptions"),
		STTAPIKey:         os.Getenv("STT_API_KEY"),
		STTModel:          getenv("STT_MODEL", "whisper-1"),
		STTPricePerMinute: getfloat("STT_PRICE_PER_MINUTE", 0.006),
		STTMaxUploadBytes: int64(getint("STT_MAX_UPLOAD_BYTES", 25<<20)),

		LoomEndpoint:  os.Getenv("LOOM_ENDPOINT"),
		VimeoEndpoint: os.Getenv("VIMEO_ENDPOINT"),
		VimeoToken:    os.Getenv("VIMEO_TOKEN"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
