package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Transcript layout constants.
const (
	// minRangeSeconds floors the window derived from a timestamp range,
	// guarding against inverted or zero-width ranges.
	minRangeSeconds = 0.2

	// minSentenceSeconds floors the spoken-duration estimate used when the
	// transcript carries no timestamps at all.
	minSentenceSeconds = 1.2

	// wordsPerBlock sizes the fixed word blocks used when the body has no
	// sentence punctuation to split on.
	wordsPerBlock = 14
)

// Transcript line patterns: "[12.30s - 15.60s] text" and "[12.30s] text".
var (
	timestampRangeRe = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)s\s*-\s*(\d+(?:\.\d+)?)s\]\s*(.*)$`)
	timestampStartRe = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)s\]\s*(.*)$`)
	headerRuleRe     = regexp.MustCompile(`^={10,}$`)
	sentenceRe       = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// ParseTranscript converts a saved transcript document into raw segments.
// Timestamped lines are preferred; a transcript without any falls back to
// sentence segmentation with estimated, cumulative timing. The result is raw
// input for Normalize, not yet a valid timeline.
func ParseTranscript(content string) []Segment {
	body := transcriptBody(content)

	segments := parseTimestampedLines(body)
	if len(segments) > 0 {
		return segments
	}

	return segmentBySentence(body)
}

// transcriptBody returns the useful lines after the header rule of a
// transcript document.
func transcriptBody(content string) []string {
	var (
		body    []string
		started bool
	)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if headerRuleRe.MatchString(line) {
			started = true

			continue
		}

		if started && line != "" {
			body = append(body, line)
		}
	}

	return body
}

// parseTimestampedLines converts timestamped transcript lines into segments,
// resolving start-only lines against their successor or a word-count estimate.
func parseTimestampedLines(lines []string) []Segment {
	var segments []Segment

	unresolved := make(map[int]bool)

	for _, line := range lines {
		if match := timestampRangeRe.FindStringSubmatch(line); match != nil {
			start := parseSeconds(match[1])
			end := parseSeconds(match[2])
			text := strings.TrimSpace(match[3])

			if text != "" {
				segments = append(segments, Segment{
					Text:     text,
					Start:    start,
					Duration: max(minRangeSeconds, end-start),
				})
			}

			continue
		}

		if match := timestampStartRe.FindStringSubmatch(line); match != nil {
			text := strings.TrimSpace(match[2])
			if text != "" {
				unresolved[len(segments)] = true
				segments = append(segments, Segment{
					Text:     text,
					Start:    parseSeconds(match[1]),
					Duration: 0,
				})
			}
		}
	}

	for i := range segments {
		if !unresolved[i] {
			continue
		}

		if i+1 < len(segments) {
			gap := segments[i+1].Start - segments[i].Start
			segments[i].Duration = max(minRangeSeconds, gap)

			continue
		}

		segments[i].Duration = EstimateDuration(segments[i].Text, minSentenceSeconds)
	}

	return segments
}

// segmentBySentence splits an untimestamped transcript body into sentences
// (or fixed word blocks when no punctuation exists) and lays them out
// back-to-back with estimated durations.
func segmentBySentence(lines []string) []Segment {
	text := strings.TrimSpace(strings.Join(lines, " "))
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	segments := make([]Segment, 0, len(sentences))
	cursor := 0.0

	for _, sentence := range sentences {
		duration := EstimateDuration(sentence, minSentenceSeconds)
		segments = append(segments, Segment{
			Text:     sentence,
			Start:    cursor,
			Duration: duration,
		})
		cursor += duration
	}

	return segments
}

// splitSentences breaks text on sentence-ending punctuation, keeping the
// punctuation with its sentence. Text with no punctuation is chopped into
// blocks of wordsPerBlock words.
func splitSentences(text string) []string {
	var sentences []string

	matched := sentenceRe.FindAllString(text, -1)
	for _, sentence := range matched {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	rest := strings.TrimSpace(sentenceRe.ReplaceAllString(text, ""))
	if rest != "" {
		sentences = append(sentences, rest)
	}

	if len(sentences) > 0 {
		return sentences
	}

	words := strings.Fields(text)
	for start := 0; start < len(words); start += wordsPerBlock {
		end := min(start+wordsPerBlock, len(words))
		sentences = append(sentences, strings.Join(words[start:end], " "))
	}

	return sentences
}

func parseSeconds(value string) float64 {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}

	return seconds
}
