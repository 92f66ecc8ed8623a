package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"clipindex/internal/models"
)

// fakeAcquirer scripts one free acquirer in the chain.
type fakeAcquirer struct {
	method models.TranscriptMethod
	result *models.TranscriptResult
	err    error
	calls  int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAcquirer) Method() models.TranscriptMethod { return f.method }

// fakeFetcher hands out a pre-made local audio file.
type fakeFetcher struct {
	path  string
	calls int
}

func (f *fakeFetcher) FetchAudio(ctx context.Context, ref Reference) (string, error) {
	f.calls++
	return f.path, nil
}

// sttServer stands in for the paid backend so the fallback leg of the chain
// can run for real.
func sttServer(t *testing.T) (*STTAcquirer, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"paid transcript.","duration":120,
			"segments":[{"text":"paid transcript.","start":0,"end":120}]}`))
	}))
	t.Cleanup(srv.Close)

	return NewSTTAcquirer(STTConfig{
		Endpoint:       srv.URL,
		APIKey:         "test-key",
		PricePerMinute: 0.006,
	}), calls
}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}
	return path
}

func TestRoute_FreeSuccessSkipsPaid(t *testing.T) {
	free := &fakeAcquirer{
		method: models.MethodCaptionAPI,
		result: &models.TranscriptResult{Method: models.MethodCaptionAPI, Text: "free transcript."},
	}
	paid, paidCalls := sttServer(t)
	r := NewRouter(free, nil, nil, paid)

	got, err := r.Route(context.Background(), Reference{
		VideoID:    "v1",
		SourceType: models.SourceYouTube,
		URL:        "https://youtu.be/abc",
	}, nil)
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if got.Method != models.MethodCaptionAPI {
		t.Errorf("method = %q, want caption-api", got.Method)
	}
	if got.CostUSD != 0 {
		t.Errorf("free acquisition cost = %f, want 0", got.CostUSD)
	}
	if *paidCalls != 0 {
		t.Errorf("paid backend was called %d times for a free success", *paidCalls)
	}
}

func TestRoute_NoTranscriptFallsBackToPaid(t *testing.T) {
	free := &fakeAcquirer{method: models.MethodCaptionAPI, err: ErrNoTranscript}
	paid, paidCalls := sttServer(t)
	fetcher := &fakeFetcher{path: audioFile(t)}

	r := NewRouter(free, nil, nil, paid)
	r.RegisterAudioFetcher(models.SourceYouTube, fetcher)

	var fetchedFirst, estimated bool
	var fetchedPath string
	hooks := &RouteHooks{
		BeforeAudioFetch: func() { fetchedFirst = true },
		AudioFetched:     func(path string) { fetchedPath = path },
		BeforePaidCall: func(usd float64) error {
			estimated = true
			if usd <= 0 {
				t.Errorf("estimated cost = %f, want > 0", usd)
			}
			return nil
		},
	}

	got, err := r.Route(context.Background(), Reference{
		VideoID:         "v1",
		SourceType:      models.SourceYouTube,
		URL:             "https://youtu.be/abc",
		DurationSeconds: 120,
	}, hooks)
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if got.Method != models.MethodSpeechToText {
		t.Errorf("method = %q, want speech-to-text", got.Method)
	}
	if got.CostUSD <= 0 {
		t.Errorf("paid acquisition cost = %f, want > 0", got.CostUSD)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
	if !fetchedFirst || !estimated {
		t.Errorf("hooks fired = (fetch %v, estimate %v), want both", fetchedFirst, estimated)
	}
	if fetchedPath != fetcher.path {
		t.Errorf("AudioFetched reported %q, want %q", fetchedPath, fetcher.path)
	}
	if *paidCalls != 1 {
		t.Errorf("paid backend called %d times, want 1", *paidCalls)
	}
}

func TestRoute_RealErrorStopsChain(t *testing.T) {
	free := &fakeAcquirer{
		method: models.MethodCaptionAPI,
		err:    NewError(KindAccessDenied, "video is private"),
	}
	paid, paidCalls := sttServer(t)
	r := NewRouter(free, nil, nil, paid)
	r.RegisterAudioFetcher(models.SourceYouTube, &fakeFetcher{path: audioFile(t)})

	_, err := r.Route(context.Background(), Reference{
		VideoID:    "v1",
		SourceType: models.SourceYouTube,
	}, nil)
	if KindOf(err) != KindAccessDenied {
		t.Fatalf("error kind = %q, want access_denied (%v)", KindOf(err), err)
	}
	if *paidCalls != 0 {
		t.Errorf("a private video must not reach the paid backend (%d calls)", *paidCalls)
	}
}

func TestRoute_UploadGoesStraightToPaid(t *testing.T) {
	free := &fakeAcquirer{method: models.MethodCaptionAPI, result: &models.TranscriptResult{Text: "x."}}
	paid, paidCalls := sttServer(t)
	r := NewRouter(free, nil, nil, paid)

	got, err := r.Route(context.Background(), Reference{
		VideoID:         "v1",
		SourceType:      models.SourceUpload,
		FilePath:        audioFile(t),
		DurationSeconds: 120,
	}, nil)
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if got.Method != models.MethodSpeechToText {
		t.Errorf("method = %q, want speech-to-text", got.Method)
	}
	if free.calls != 0 {
		t.Errorf("free acquirer called %d times for an upload", free.calls)
	}
	if *paidCalls != 1 {
		t.Errorf("paid backend called %d times, want 1", *paidCalls)
	}
}

func TestRoute_BudgetHookAborts(t *testing.T) {
	free := &fakeAcquirer{method: models.MethodCaptionAPI, err: ErrNoTranscript}
	paid, paidCalls := sttServer(t)
	r := NewRouter(free, nil, nil, paid)
	r.RegisterAudioFetcher(models.SourceYouTube, &fakeFetcher{path: audioFile(t)})

	budget := errors.New("over budget")
	_, err := r.Route(context.Background(), Reference{
		VideoID:         "v1",
		SourceType:      models.SourceYouTube,
		DurationSeconds: 7200,
	}, &RouteHooks{BeforePaidCall: func(usd float64) error { return budget }})
	if !errors.Is(err, budget) {
		t.Fatalf("error = %v, want budget abort", err)
	}
	if *paidCalls != 0 {
		t.Errorf("paid backend called %d times after budget abort", *paidCalls)
	}
}

func TestRoute_UnknownSourceType(t *testing.T) {
	paid, _ := sttServer(t)
	r := NewRouter(nil, nil, nil, paid)
	_, err := r.Route(context.Background(), Reference{SourceType: "mystery"}, nil)
	if KindOf(err) != KindUnrecognizedSource {
		t.Fatalf("error kind = %q, want unrecognized_source", KindOf(err))
	}
}
