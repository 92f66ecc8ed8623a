package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"clipindex/internal/models"
)

// StatusError is a non-200 response from a caption track URL. Callers
// dispatch on Code; not every bad status is worth retrying.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("caption track returned status %d", e.Code)
}

// timedtext XML as served by YouTube caption track URLs.
type xmlTranscript struct {
	XMLName xml.Name `xml:"timedtext"`
	Text    []xmlPar `xml:"body>p"`
}

type xmlPar struct {
	Start    int64        `xml:"t,attr"` // milliseconds
	Duration int64        `xml:"d,attr"` // milliseconds
	Body     string       `xml:",chardata"`
	Segments []xmlSegment `xml:"s"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

// FetchCaption downloads and parses a caption track into ordered segments
// with second-resolution float timestamps.
func (c *Client) FetchCaption(ctx context.Context, track *CaptionTrack) ([]models.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build caption request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read caption body: %w", err)
	}

	return ParseTimedText(body)
}

// ParseTimedText parses YouTube timedtext XML. Empty entries are dropped;
// millisecond precision is preserved in the float seconds.
func ParseTimedText(data []byte) ([]models.Segment, error) {
	var transcript xmlTranscript
	if err := xml.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("parse timedtext xml: %w", err)
	}

	segments := make([]models.Segment, 0, len(transcript.Text))
	for _, p := range transcript.Text {
		text := p.Body
		if len(p.Segments) > 0 {
			text = ""
			for _, s := range p.Segments {
				text += s.Text
			}
		}
		if text == "" {
			continue
		}

		segments = append(segments, models.Segment{
			Text:     text,
			Start:    float64(p.Start) / 1000.0,
			Duration: float64(p.Duration) / 1000.0,
		})
	}

	return segments, nil
}
