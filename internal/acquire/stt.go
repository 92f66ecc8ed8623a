package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"clipindex/internal/models"
)

// STTConfig configures the paid speech-to-text backend.
type STTConfig struct {
	Endpoint       string  // transcription endpoint URL
	APIKey         string
	Model          string  // e.g. "whisper-1"
	PricePerMinute float64 // metered unit cost in USD
	MaxUploadBytes int64   // hard input limit; larger files are rejected
	RequestsPerSec float64 // client-side rate limit on metered calls
}

// STTAcquirer is the paid fallback. Unlike the free acquirers it never
// returns ErrNoTranscript: given audio it either transcribes or fails.
type STTAcquirer struct {
	cfg     STTConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewSTTAcquirer creates the paid acquirer.
func NewSTTAcquirer(cfg STTConfig) *STTAcquirer {
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20 // common STT API upload cap
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	return &STTAcquirer{
		cfg:     cfg,
		http:    &http.Client{}, // no client timeout: long uploads, ctx governs
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Method implements Acquirer.
func (a *STTAcquirer) Method() models.TranscriptMethod {
	return models.MethodSpeechToText
}

// EstimateCost returns the metered cost for a given audio duration. Computed
// before the backend is invoked so collaborators can gate on budget.
func (a *STTAcquirer) EstimateCost(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds / 60.0 * a.cfg.PricePerMinute
}

type sttResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// Acquire uploads the referenced audio file and normalizes the response.
// Files over the configured limit fail with PayloadTooLarge; nothing is
// truncated silently.
func (a *STTAcquirer) Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error) {
	started := time.Now()

	if a.cfg.APIKey == "" {
		return nil, NewError(KindAuthMissing, "no speech-to-text API key configured")
	}
	if ref.FilePath == "" {
		return nil, NewError(KindInvalidReference, "speech-to-text requires a local audio file")
	}

	info, err := os.Stat(ref.FilePath)
	if err != nil {
		return nil, WrapError(KindResourceNotFound, "audio file not found", err)
	}
	if info.Size() > a.cfg.MaxUploadBytes {
		return nil, NewError(KindPayloadTooLarge,
			fmt.Sprintf("audio file is %d bytes, limit is %d", info.Size(), a.cfg.MaxUploadBytes))
	}

	estimated := a.EstimateCost(ref.DurationSeconds)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, WrapError(KindNetworkError, "rate limiter interrupted", err)
	}

	body, err := a.transcribe(ctx, ref.FilePath)
	if err != nil {
		return nil, err
	}

	segments := make([]models.Segment, 0, len(body.Segments))
	for _, s := range body.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Text:     text,
			Start:    s.Start,
			Duration: s.End - s.Start,
		})
	}

	cost := estimated
	if body.Duration > 0 {
		// Bill on the duration the backend actually measured.
		cost = a.EstimateCost(body.Duration)
	}

	return &models.TranscriptResult{
		SourceType:       ref.SourceType,
		Method:           models.MethodSpeechToText,
		Text:             strings.TrimSpace(body.Text),
		Segments:         segments,
		CostUSD:          cost,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}, nil
}

func (a *STTAcquirer) transcribe(ctx context.Context, path string) (*sttResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, WrapError(KindResourceNotFound, "open audio file", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, WrapError(KindInternal, "build multipart body", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, WrapError(KindInternal, "read audio file", err)
	}
	_ = mw.WriteField("model", a.cfg.Model)
	_ = mw.WriteField("response_format", "verbose_json")
	if err := mw.Close(); err != nil {
		return nil, WrapError(KindInternal, "finish multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, &buf)
	if err != nil {
		return nil, WrapError(KindInvalidReference, "build transcription request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, WrapError(KindNetworkError, "call speech-to-text backend", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, NewError(KindAuthMissing, "speech-to-text backend rejected credentials")
	case http.StatusRequestEntityTooLarge:
		return nil, NewError(KindPayloadTooLarge, "speech-to-text backend rejected upload size")
	case http.StatusTooManyRequests:
		return nil, NewError(KindRateLimited, "rate limited by speech-to-text backend")
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewError(KindNetworkError,
			fmt.Sprintf("speech-to-text backend returned status %d: %s", resp.StatusCode, detail))
	}

	var body sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, WrapError(KindNetworkError, "decode transcription response", err)
	}
	if body.Text == "" && len(body.Segments) == 0 {
		return nil, NewError(KindInternal, "speech-to-text backend returned an empty transcript")
	}
	return &body, nil
}
