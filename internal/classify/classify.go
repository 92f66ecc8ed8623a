// Package classify maps a video record or raw URL to its acquisition
// strategy. Pure string inspection, no I/O.
package classify

import (
	"net/url"
	"strings"

	"clipindex/internal/acquire"
	"clipindex/internal/models"
)

// Classify determines the source type for a video. An explicit, valid stored
// source type wins; otherwise the URL is matched against known platform
// patterns. A non-empty file path with no recognizable URL classifies as an
// upload. Returns an unrecognized-source error when nothing matches.
func Classify(stored models.SourceType, rawURL, filePath string) (models.SourceType, error) {
	if stored != "" {
		if !stored.Valid() {
			return "", acquire.NewError(acquire.KindUnrecognizedSource,
				"unknown source type "+string(stored))
		}
		return stored, nil
	}

	if rawURL != "" {
		if st, ok := classifyURL(rawURL); ok {
			return st, nil
		}
		return "", acquire.NewError(acquire.KindUnrecognizedSource,
			"no acquisition strategy for url "+rawURL)
	}

	if filePath != "" {
		return models.SourceUpload, nil
	}

	return "", acquire.NewError(acquire.KindUnrecognizedSource,
		"video has neither source type, url, nor file path")
}

func classifyURL(rawURL string) (models.SourceType, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	path := u.Path

	switch {
	case host == "youtu.be":
		return models.SourceYouTube, true
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if strings.HasPrefix(path, "/watch") || strings.HasPrefix(path, "/shorts/") ||
			strings.HasPrefix(path, "/live/") || strings.HasPrefix(path, "/embed/") {
			return models.SourceYouTube, true
		}
		return "", false
	case host == "loom.com" || strings.HasSuffix(host, ".loom.com"):
		if strings.HasPrefix(path, "/share/") || strings.HasPrefix(path, "/embed/") {
			return models.SourceLoom, true
		}
		return "", false
	case host == "vimeo.com" || strings.HasSuffix(host, ".vimeo.com"):
		return models.SourceVimeo, true
	}
	return "", false
}
