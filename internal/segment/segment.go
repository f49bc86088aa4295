// Package segment provides the transcript segment model and the timing
// repairs that every segment must pass through before synthesis.
package segment

import (
	"sort"
	"strings"
)

// Timing repair constants.
const (
	// MinWindowSeconds is the smallest target window a segment may occupy.
	MinWindowSeconds = 0.15

	// wordsPerSecond is the assumed speech rate (~168 words per minute)
	// used when a duration has to be estimated from text alone.
	wordsPerSecond = 2.8

	// minEstimatedSeconds floors the word-count estimate for a trailing
	// segment with no successor to infer a window from.
	minEstimatedSeconds = 0.6
)

// Segment is one utterance's intended position on the final timeline. A zero
// Duration means the source did not supply one and it must be inferred.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the instant at which the segment's window closes.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Normalize repairs an unordered, possibly incomplete segment list into a
// sequence safe for synthesis: empty text dropped, starts clamped to zero and
// sorted ascending, and every duration resolved to at least MinWindowSeconds.
// Missing durations are inferred from the gap to the following segment, or
// estimated from word count for the final segment. The result is empty only
// when no input segment carries usable text.
func Normalize(segments []Segment) []Segment {
	cleaned := make([]Segment, 0, len(segments))

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		cleaned = append(cleaned, Segment{
			Text:     text,
			Start:    max(0, seg.Start),
			Duration: max(0, seg.Duration),
		})
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Start < cleaned[j].Start
	})

	for i := range cleaned {
		if cleaned[i].Duration > 0 {
			continue
		}

		if i+1 < len(cleaned) {
			gap := cleaned[i+1].Start - cleaned[i].Start
			cleaned[i].Duration = max(MinWindowSeconds, gap)

			continue
		}

		cleaned[i].Duration = EstimateDuration(cleaned[i].Text, minEstimatedSeconds)
	}

	return cleaned
}

// EstimateDuration estimates how long a text takes to speak at the assumed
// speech rate, never below floorSeconds.
func EstimateDuration(text string, floorSeconds float64) float64 {
	words := len(strings.Fields(text))

	return max(floorSeconds, float64(words)/wordsPerSecond)
}
