package acquire

import (
	"strconv"
	"strings"

	"clipindex/internal/models"
)

// ParseWebVTT parses WebVTT cue blocks into ordered segments. Cue settings,
// identifiers, NOTE and STYLE blocks are ignored; multi-line cue payloads
// are joined with spaces. Millisecond precision is preserved.
func ParseWebVTT(data []byte) []models.Segment {
	var segments []models.Segment

	var (
		inCue   bool
		start   float64
		end     float64
		payload []string
	)

	flush := func() {
		if inCue && len(payload) > 0 {
			segments = append(segments, models.Segment{
				Text:     strings.Join(payload, " "),
				Start:    start,
				Duration: end - start,
			})
		}
		inCue = false
		payload = nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "WEBVTT") || strings.HasPrefix(trimmed, "NOTE") ||
			strings.HasPrefix(trimmed, "STYLE") || strings.HasPrefix(trimmed, "REGION") {
			continue
		}

		if strings.Contains(trimmed, "-->") {
			flush()
			parts := strings.SplitN(trimmed, "-->", 2)
			s, okS := parseVTTTime(strings.TrimSpace(parts[0]))
			// Cue settings may trail the end time.
			endField := strings.Fields(strings.TrimSpace(parts[1]))
			if len(endField) == 0 {
				continue
			}
			e, okE := parseVTTTime(endField[0])
			if !okS || !okE {
				continue
			}
			inCue = true
			start, end = s, e
			continue
		}

		if inCue {
			payload = append(payload, stripVTTTags(trimmed))
		}
	}
	flush()

	return segments
}

// parseVTTTime parses "HH:MM:SS.mmm" or "MM:SS.mmm" into seconds.
func parseVTTTime(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// stripVTTTags removes inline markup like <v Speaker> and <i>.
func stripVTTTags(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
