package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	ytdl "github.com/kkdai/youtube/v2"

	"clipindex/internal/models"
	"clipindex/internal/youtube"
)

// YouTubeAcquirer pulls existing caption tracks through the caption API.
// Free: it never transcribes, it only fetches what the platform already has.
type YouTubeAcquirer struct {
	client   *youtube.Client
	language string
}

// NewYouTubeAcquirer creates the caption acquirer. language selects the
// preferred caption track ("en" by default).
func NewYouTubeAcquirer(client *youtube.Client, language string) *YouTubeAcquirer {
	if language == "" {
		language = "en"
	}
	return &YouTubeAcquirer{client: client, language: language}
}

// Method implements Acquirer.
func (a *YouTubeAcquirer) Method() models.TranscriptMethod {
	return models.MethodCaptionAPI
}

// Acquire fetches the best caption track and normalizes it. A video without
// caption tracks yields ErrNoTranscript so the router can fall through.
func (a *YouTubeAcquirer) Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error) {
	started := time.Now()

	video, err := a.client.GetVideo(ctx, ref.URL)
	if err != nil {
		return nil, classifyYouTubeErr(err)
	}

	if !video.HasCaptions() {
		return nil, ErrNoTranscript
	}

	track := video.FindCaption(a.language)
	segments, err := a.client.FetchCaption(ctx, track)
	if err != nil {
		return nil, classifyCaptionErr(err)
	}
	if len(segments) == 0 {
		// Track listed but empty: nothing usable, same as no captions.
		return nil, ErrNoTranscript
	}

	result := &models.TranscriptResult{
		SourceType:       models.SourceYouTube,
		Method:           models.MethodCaptionAPI,
		Segments:         segments,
		CostUSD:          0,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}
	result.Text = result.FullText()
	return result, nil
}

// FetchAudio implements AudioFetcher: downloads the smallest audio stream to
// dataDir so the paid fallback can transcribe it.
type YouTubeAudioFetcher struct {
	client  *youtube.Client
	dataDir string
}

// NewYouTubeAudioFetcher creates the fallback audio downloader.
func NewYouTubeAudioFetcher(client *youtube.Client, dataDir string) *YouTubeAudioFetcher {
	return &YouTubeAudioFetcher{client: client, dataDir: dataDir}
}

// FetchAudio downloads the video's audio and returns the local path.
func (f *YouTubeAudioFetcher) FetchAudio(ctx context.Context, ref Reference) (string, error) {
	dir := filepath.Join(f.dataDir, "audio", ref.VideoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", WrapError(KindInternal, "create audio directory", err)
	}

	path := filepath.Join(dir, "audio.m4a")
	if _, err := f.client.DownloadAudio(ctx, ref.URL, path); err != nil {
		return "", classifyYouTubeErr(err)
	}
	return path, nil
}

// classifyCaptionErr maps caption track fetch failures onto the taxonomy.
// Only transient responses stay retryable; a dead track URL behaves like a
// video without captions and falls through to the paid path.
func classifyCaptionErr(err error) error {
	var se *youtube.StatusError
	if !errors.As(err, &se) {
		return WrapError(KindNetworkError, "fetch caption track", err)
	}

	switch {
	case se.Code == http.StatusTooManyRequests:
		return WrapError(KindRateLimited, "rate limited by platform", err)
	case se.Code == http.StatusUnauthorized, se.Code == http.StatusForbidden:
		return WrapError(KindAccessDenied, "caption track not accessible", err)
	case se.Code == http.StatusNotFound, se.Code == http.StatusGone:
		return ErrNoTranscript
	case se.Code >= 500:
		return WrapError(KindNetworkError, "platform error fetching caption track", err)
	default:
		return WrapError(KindInternal,
			fmt.Sprintf("caption track returned status %d", se.Code), err)
	}
}

// classifyYouTubeErr maps kkdai client errors onto the pipeline taxonomy.
// A private video is access denied, not fallback fodder.
func classifyYouTubeErr(err error) error {
	switch {
	case errors.Is(err, ytdl.ErrVideoPrivate), errors.Is(err, ytdl.ErrLoginRequired):
		return WrapError(KindAccessDenied, "video is not publicly accessible", err)
	case errors.Is(err, ytdl.ErrInvalidCharactersInVideoID),
		errors.Is(err, ytdl.ErrVideoIDMinLength):
		return WrapError(KindInvalidReference, "not a valid video reference", err)
	}

	var ps *ytdl.ErrPlayabiltyStatus
	if errors.As(err, &ps) {
		return WrapError(KindResourceNotFound,
			fmt.Sprintf("video not playable (%s)", ps.Status), err)
	}

	var sc ytdl.ErrUnexpectedStatusCode
	if errors.As(err, &sc) {
		if int(sc) == http.StatusTooManyRequests {
			return WrapError(KindRateLimited, "rate limited by platform", err)
		}
		return WrapError(KindNetworkError,
			fmt.Sprintf("unexpected status %d", int(sc)), err)
	}

	return WrapError(KindNetworkError, "reach platform", err)
}
