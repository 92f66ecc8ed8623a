package youtube

import "testing"

func TestFindCaption_PrefersManualOverAuto(t *testing.T) {
	v := &VideoInfo{Captions: []CaptionTrack{
		{LanguageCode: "en", Kind: "asr", BaseURL: "auto"},
		{LanguageCode: "en", Kind: "", BaseURL: "manual"},
		{LanguageCode: "ja", Kind: "", BaseURL: "ja"},
	}}

	got := v.FindCaption("en")
	if got == nil || got.BaseURL != "manual" {
		t.Fatalf("FindCaption(en) = %+v, want the manual track", got)
	}
}

func TestFindCaption_AutoWhenOnlyAuto(t *testing.T) {
	v := &VideoInfo{Captions: []CaptionTrack{
		{LanguageCode: "en-US", Kind: "asr", BaseURL: "auto"},
	}}

	got := v.FindCaption("en")
	if got == nil || got.BaseURL != "auto" {
		t.Fatalf("FindCaption(en) = %+v, want the asr track", got)
	}
}

func TestFindCaption_FallsBackToFirstTrack(t *testing.T) {
	v := &VideoInfo{Captions: []CaptionTrack{
		{LanguageCode: "de", BaseURL: "de"},
		{LanguageCode: "fr", BaseURL: "fr"},
	}}

	got := v.FindCaption("en")
	if got == nil || got.BaseURL != "de" {
		t.Fatalf("FindCaption(en) = %+v, want the first track", got)
	}
}

func TestFindCaption_NoTracks(t *testing.T) {
	v := &VideoInfo{}
	if got := v.FindCaption("en"); got != nil {
		t.Fatalf("FindCaption on empty list = %+v, want nil", got)
	}
	if v.HasCaptions() {
		t.Error("HasCaptions should be false")
	}
}
