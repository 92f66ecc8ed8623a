package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipindex/internal/models"
)

// VimeoAcquirer fetches the auto-generated text track of a hosted video.
// Free, best-effort: videos whose auto-captioning has not run (or is
// disabled) yield ErrNoTranscript.
type VimeoAcquirer struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewVimeoAcquirer creates the acquirer. endpoint defaults to the public
// API, token is the platform access token.
func NewVimeoAcquirer(endpoint, token string, timeout time.Duration) *VimeoAcquirer {
	if endpoint == "" {
		endpoint = "https://api.vimeo.com"
	}
	return &VimeoAcquirer{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
}

// Method implements Acquirer.
func (a *VimeoAcquirer) Method() models.TranscriptMethod {
	return models.MethodAutoCaption
}

type vimeoTextTracks struct {
	Data []struct {
		Active bool   `json:"active"`
		Type   string `json:"type"` // "captions", "subtitles"
		Link   string `json:"link"`
	} `json:"data"`
}

// Acquire lists the video's text tracks, downloads the first active one and
// parses its WebVTT cues into segments.
func (a *VimeoAcquirer) Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error) {
	started := time.Now()

	if a.token == "" {
		return nil, NewError(KindAuthMissing, "no platform access token configured")
	}

	id, err := vimeoVideoID(ref.URL)
	if err != nil {
		return nil, err
	}

	tracks, err := a.listTextTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	var link string
	for _, t := range tracks.Data {
		if t.Active && t.Link != "" {
			link = t.Link
			break
		}
	}
	if link == "" {
		return nil, ErrNoTranscript
	}

	vtt, err := a.fetch(ctx, link)
	if err != nil {
		return nil, WrapError(KindNetworkError, "download text track", err)
	}

	segments := ParseWebVTT(vtt)
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	result := &models.TranscriptResult{
		SourceType:       models.SourceVimeo,
		Method:           models.MethodAutoCaption,
		Segments:         segments,
		CostUSD:          0,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}
	result.Text = result.FullText()
	return result, nil
}

func (a *VimeoAcquirer) listTextTracks(ctx context.Context, id string) (*vimeoTextTracks, error) {
	reqURL := fmt.Sprintf("%s/videos/%s/texttracks", a.endpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, WrapError(KindInvalidReference, "build texttracks request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, WrapError(KindNetworkError, "list text tracks", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, NewError(KindAuthMissing, "platform rejected access token")
	case http.StatusForbidden:
		return nil, NewError(KindAccessDenied, "video is not accessible with this token")
	case http.StatusNotFound:
		return nil, NewError(KindResourceNotFound, "video not found")
	case http.StatusTooManyRequests:
		return nil, NewError(KindRateLimited, "rate limited by platform")
	default:
		return nil, NewError(KindNetworkError,
			fmt.Sprintf("texttracks endpoint returned status %d", resp.StatusCode))
	}

	var tracks vimeoTextTracks
	if err := json.NewDecoder(resp.Body).Decode(&tracks); err != nil {
		return nil, WrapError(KindNetworkError, "decode texttracks response", err)
	}
	return &tracks, nil
}

func (a *VimeoAcquirer) fetch(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("track url returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// vimeoVideoID extracts the numeric video id from a video URL.
func vimeoVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", WrapError(KindInvalidReference, "parse video url", err)
	}

	for _, part := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if part != "" && isDigits(part) {
			return part, nil
		}
	}
	return "", NewError(KindInvalidReference, "no video id in url: "+rawURL)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
