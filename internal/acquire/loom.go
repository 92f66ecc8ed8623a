package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipindex/internal/models"
)

// LoomAcquirer fetches the transcript a screen-recording platform generated
// at upload time through its public JSON endpoint. Free, best-effort:
// recordings without a finished transcript yield ErrNoTranscript.
type LoomAcquirer struct {
	endpoint string
	http     *http.Client
}

// NewLoomAcquirer creates the acquirer. endpoint is the API base URL,
// overridable for tests.
func NewLoomAcquirer(endpoint string, timeout time.Duration) *LoomAcquirer {
	if endpoint == "" {
		endpoint = "https://www.loom.com/api/campaigns/sessions"
	}
	return &LoomAcquirer{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

// Method implements Acquirer.
func (a *LoomAcquirer) Method() models.TranscriptMethod {
	return models.MethodPlatformAPI
}

type loomTranscript struct {
	Segments []struct {
		Text      string  `json:"text"`
		StartTime float64 `json:"start_time"`
		Duration  float64 `json:"duration"`
	} `json:"segments"`
}

// Acquire fetches and normalizes the recording's transcript.
func (a *LoomAcquirer) Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error) {
	started := time.Now()

	id, err := loomVideoID(ref.URL)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s/transcript", a.endpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, WrapError(KindInvalidReference, "build transcript request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, WrapError(KindNetworkError, "fetch recording transcript", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		// The recording exists but never got a transcript, or the id is
		// stale. Either way there is nothing free here.
		return nil, ErrNoTranscript
	case http.StatusUnauthorized:
		return nil, NewError(KindAuthMissing, "platform rejected credentials")
	case http.StatusForbidden:
		return nil, NewError(KindAccessDenied, "recording is not publicly accessible")
	case http.StatusTooManyRequests:
		return nil, NewError(KindRateLimited, "rate limited by platform")
	default:
		return nil, NewError(KindNetworkError,
			fmt.Sprintf("transcript endpoint returned status %d", resp.StatusCode))
	}

	var body loomTranscript
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, WrapError(KindNetworkError, "decode transcript response", err)
	}
	if len(body.Segments) == 0 {
		return nil, ErrNoTranscript
	}

	segments := make([]models.Segment, 0, len(body.Segments))
	for _, s := range body.Segments {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Text:     s.Text,
			Start:    s.StartTime,
			Duration: s.Duration,
		})
	}
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	result := &models.TranscriptResult{
		SourceType:       models.SourceLoom,
		Method:           models.MethodPlatformAPI,
		Segments:         segments,
		CostUSD:          0,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}
	result.Text = result.FullText()
	return result, nil
}

// loomVideoID extracts the recording id from a share or embed URL.
func loomVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", WrapError(KindInvalidReference, "parse recording url", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "share" || parts[0] == "embed") && parts[1] != "" {
		return parts[1], nil
	}
	return "", NewError(KindInvalidReference, "not a recognizable recording url: "+rawURL)
}
