// Package youtube wraps the kkdai YouTube client with the small surface the
// pipeline needs: video metadata, caption track listing, and audio download
// for the speech-to-text fallback path.
package youtube

import (
	"context"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// Client wraps YouTube access.
type Client struct {
	client ytdl.Client
}

// NewClient creates a YouTube client.
func NewClient() *Client {
	return &Client{client: ytdl.Client{}}
}

// VideoInfo is the metadata the pipeline cares about.
type VideoInfo struct {
	ID              string
	Title           string
	Author          string
	DurationSeconds float64
	Captions        []CaptionTrack
}

// CaptionTrack is one available caption track.
type CaptionTrack struct {
	LanguageCode string
	Name         string
	Kind         string // "asr" for auto-generated tracks
	BaseURL      string
}

// GetVideo fetches video metadata including the caption track list.
func (c *Client) GetVideo(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}

	captions := make([]CaptionTrack, len(video.CaptionTracks))
	for i, track := range video.CaptionTracks {
		captions[i] = CaptionTrack{
			LanguageCode: track.LanguageCode,
			Name:         track.Name.SimpleText,
			Kind:         track.Kind,
			BaseURL:      track.BaseURL,
		}
	}

	return &VideoInfo{
		ID:              video.ID,
		Title:           video.Title,
		Author:          video.Author,
		DurationSeconds: video.Duration.Seconds(),
		Captions:        captions,
	}, nil
}

// HasCaptions reports whether any caption track is available.
func (v *VideoInfo) HasCaptions() bool {
	return len(v.Captions) > 0
}

// FindCaption picks the caption track for lang, preferring manually authored
// tracks over auto-generated ones. Falls back to the first track when the
// language is not present. Nil when the video has no captions at all.
func (v *VideoInfo) FindCaption(lang string) *CaptionTrack {
	if len(v.Captions) == 0 {
		return nil
	}

	var autoMatch *CaptionTrack
	for i := range v.Captions {
		t := &v.Captions[i]
		if !strings.HasPrefix(t.LanguageCode, lang) {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if autoMatch == nil {
			autoMatch = t
		}
	}
	if autoMatch != nil {
		return autoMatch
	}
	return &v.Captions[0]
}
