package acquire

import (
	"context"
	"errors"
	"log"

	"clipindex/internal/models"
)

// RouteHooks lets the caller observe routing decisions. BeforeAudioFetch
// fires when a remote source must be downloaded locally for the paid path
// (the worker persists the uploading stage there). AudioFetched reports
// where the download landed so the caller can persist the path and hand it
// back on the next attempt instead of downloading again. BeforePaidCall
// fires with the estimated cost before any metered call; returning an error
// aborts the route without spending money.
type RouteHooks struct {
	BeforeAudioFetch func()
	AudioFetched     func(localPath string)
	BeforePaidCall   func(estimatedUSD float64) error
}

// Router orders acquirers per source type and walks the chain: free first,
// paid last. Exactly one free acquirer is authoritative per source type; no
// speculative or parallel calls.
type Router struct {
	youtube  Acquirer
	loom     Acquirer
	vimeo    Acquirer
	paid     *STTAcquirer
	fetchers map[models.SourceType]AudioFetcher
}

// NewRouter wires the acquirer chain.
func NewRouter(yt, loom, vimeo Acquirer, paid *STTAcquirer) *Router {
	return &Router{
		youtube:  yt,
		loom:     loom,
		vimeo:    vimeo,
		paid:     paid,
		fetchers: make(map[models.SourceType]AudioFetcher),
	}
}

// RegisterAudioFetcher installs the audio downloader used when a remote
// source falls through to the paid acquirer.
func (r *Router) RegisterAudioFetcher(st models.SourceType, f AudioFetcher) {
	r.fetchers[st] = f
}

// Route acquires a transcript for ref, trying the source type's free
// acquirer first and the paid fallback only on ErrNoTranscript. Any real
// error stops the chain immediately: a private video stays private, it does
// not get transcribed at cost.
func (r *Router) Route(ctx context.Context, ref Reference, hooks *RouteHooks) (*models.TranscriptResult, error) {
	free, err := r.freeAcquirer(ref.SourceType)
	if err != nil {
		return nil, err
	}

	if free != nil {
		result, err := free.Acquire(ctx, ref)
		if err == nil {
			log.Printf("router: video %s acquired via %s", ref.VideoID, free.Method())
			return result, nil
		}
		if !errors.Is(err, ErrNoTranscript) {
			return nil, err
		}
		log.Printf("router: video %s has no free transcript, falling back to paid", ref.VideoID)
	}

	return r.routePaid(ctx, ref, hooks)
}

// freeAcquirer returns the single authoritative free acquirer for a source
// type. Uploaded files have none; they go straight to paid.
func (r *Router) freeAcquirer(st models.SourceType) (Acquirer, error) {
	switch st {
	case models.SourceYouTube:
		return r.youtube, nil
	case models.SourceLoom:
		return r.loom, nil
	case models.SourceVimeo:
		return r.vimeo, nil
	case models.SourceUpload:
		return nil, nil
	default:
		return nil, NewError(KindUnrecognizedSource, "no acquirer chain for source type "+string(st))
	}
}

func (r *Router) routePaid(ctx context.Context, ref Reference, hooks *RouteHooks) (*models.TranscriptResult, error) {
	if r.paid == nil {
		return nil, NewError(KindInternal, "no paid acquirer configured")
	}

	if ref.FilePath == "" {
		fetcher, ok := r.fetchers[ref.SourceType]
		if !ok {
			return nil, NewError(KindInvalidReference,
				"no local audio and no audio fetcher for source type "+string(ref.SourceType))
		}
		if hooks != nil && hooks.BeforeAudioFetch != nil {
			hooks.BeforeAudioFetch()
		}
		path, err := fetcher.FetchAudio(ctx, ref)
		if err != nil {
			return nil, err
		}
		ref.FilePath = path
		if hooks != nil && hooks.AudioFetched != nil {
			hooks.AudioFetched(path)
		}
	}

	if hooks != nil && hooks.BeforePaidCall != nil {
		if err := hooks.BeforePaidCall(r.paid.EstimateCost(ref.DurationSeconds)); err != nil {
			return nil, err
		}
	}

	return r.paid.Acquire(ctx, ref)
}
