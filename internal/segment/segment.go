// Package segment splits a transcript into overlapping, sentence-bounded
// chunks with interpolated start/end timestamps.
package segment

import (
	"strings"

	"clipindex/internal/models"
)

// Config bounds chunk sizes. Chunks close when the next sentence would push
// the word count past MaxWords; each new chunk is seeded with the trailing
// OverlapWords words of the previous one so retrieval does not lose context
// at chunk boundaries.
type Config struct {
	MaxWords     int
	OverlapWords int
}

// DefaultConfig returns the standard chunking bounds.
func DefaultConfig() Config {
	return Config{
		MaxWords:     1000,
		OverlapWords: 100,
	}
}

// word is one whitespace-delimited token with its interpolated timing.
type word struct {
	text  string
	start float64
	end   float64
}

// Split chunks a transcript for a video. Native segment timestamps are
// mapped onto words by linear interpolation within each segment; without
// native timestamps, words are timed proportionally to character offset over
// durationSeconds. The last chunk may be arbitrarily short.
func Split(videoID string, result *models.TranscriptResult, durationSeconds float64, cfg Config) []models.TranscriptChunk {
	if cfg.MaxWords <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.OverlapWords >= cfg.MaxWords {
		cfg.OverlapWords = cfg.MaxWords / 10
	}

	words := timeWords(result, durationSeconds)
	if len(words) == 0 {
		return nil
	}

	sentences := sentenceRanges(words)
	ranges := chunkRanges(words, sentences, cfg)

	chunks := make([]models.TranscriptChunk, 0, len(ranges))
	for i, r := range ranges {
		texts := make([]string, 0, r.end-r.start)
		for _, w := range words[r.start:r.end] {
			texts = append(texts, w.text)
		}

		// Timestamps cover the fresh content only; the overlap seed belongs
		// to the previous chunk's span. Chunk spans tile the timeline.
		start := words[r.content].start
		end := words[r.end-1].end
		start, end = clampSpan(start, end, durationSeconds)

		chunks = append(chunks, models.TranscriptChunk{
			VideoID:          videoID,
			ChunkIndex:       i,
			Text:             strings.Join(texts, " "),
			StartTimeSeconds: start,
			EndTimeSeconds:   end,
			WordCount:        r.end - r.start,
		})
	}
	return chunks
}

// chunkRange is a half-open word index range; content marks where fresh
// (non-overlap) text begins within it.
type chunkRange struct {
	start, content, end int
}

// span is a half-open word index range.
type span struct {
	start, end int
}

// chunkRanges greedily packs sentences into word ranges. A chunk never ends
// mid-sentence; the overlap seed is word-level by contract so that chunk N+1
// begins with exactly the trailing OverlapWords words of chunk N.
func chunkRanges(words []word, sentences []span, cfg Config) []chunkRange {
	var ranges []chunkRange

	cur := chunkRange{}
	for _, s := range sentences {
		sentLen := s.end - s.start
		curLen := cur.end - cur.start

		if curLen > 0 && curLen+sentLen > cfg.MaxWords {
			ranges = append(ranges, cur)
			seed := cur.end - cfg.OverlapWords
			if seed < cur.start {
				seed = cur.start
			}
			cur = chunkRange{start: seed, content: cur.end, end: s.end}
			continue
		}
		cur.end = s.end
	}
	if cur.end > cur.start {
		ranges = append(ranges, cur)
	}
	return ranges
}

// sentenceRanges walks words and closes a sentence at terminal punctuation.
// Transcripts are messy, so this stays deliberately simple: ./!/? possibly
// followed by a closing quote or bracket ends a sentence.
func sentenceRanges(words []word) []span {
	var sentences []span
	start := 0
	for i, w := range words {
		if endsSentence(w.text) {
			sentences = append(sentences, span{start: start, end: i + 1})
			start = i + 1
		}
	}
	if start < len(words) {
		sentences = append(sentences, span{start: start, end: len(words)})
	}
	return sentences
}

func endsSentence(w string) bool {
	w = strings.TrimRight(w, `"')]`+"”’")
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}

// timeWords produces the word timeline the chunk boundaries are mapped onto.
func timeWords(result *models.TranscriptResult, durationSeconds float64) []word {
	if len(result.Segments) > 0 {
		return wordsFromSegments(result.Segments)
	}
	return wordsFromText(result.FullText(), durationSeconds)
}

// wordsFromSegments interpolates per-word times inside each native segment.
// A sentence spanning multiple segments gets monotone times because each
// word inherits timing from the segment it came from.
func wordsFromSegments(segments []models.Segment) []word {
	var words []word
	for _, seg := range segments {
		fields := strings.Fields(seg.Text)
		if len(fields) == 0 {
			continue
		}
		per := seg.Duration / float64(len(fields))
		for i, f := range fields {
			words = append(words, word{
				text:  f,
				start: seg.Start + float64(i)*per,
				end:   seg.Start + float64(i+1)*per,
			})
		}
	}
	return words
}

// wordsFromText assigns uniform timestamps proportional to character offset.
// This is the pure paid-transcript degenerate case where no native segment
// timing exists.
func wordsFromText(text string, durationSeconds float64) []word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	total := 0
	for _, f := range fields {
		total += len(f) + 1
	}

	var words []word
	offset := 0
	for _, f := range fields {
		start := float64(offset) / float64(total) * durationSeconds
		offset += len(f) + 1
		end := float64(offset) / float64(total) * durationSeconds
		words = append(words, word{text: f, start: start, end: end})
	}
	return words
}

// clampSpan keeps chunk times ordered and inside [0, duration].
func clampSpan(start, end, duration float64) (float64, float64) {
	if start < 0 {
		start = 0
	}
	if duration > 0 {
		if start > duration {
			start = duration
		}
		if end > duration {
			end = duration
		}
	}
	if end < start {
		end = start
	}
	return start, end
}
