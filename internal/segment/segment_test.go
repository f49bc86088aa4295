// Package segment_test tests segment normalization and transcript parsing.
package segment_test

import (
	"testing"

	"github.com/book-expert/dub-service/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropsEmptyText(t *testing.T) {
	t.Parallel()

	input := []segment.Segment{
		{Text: "   ", Start: 0, Duration: 2},
		{Text: "", Start: 1, Duration: 2},
		{Text: "keep me", Start: 2, Duration: 2},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 1)
	assert.Equal(t, "keep me", normalized[0].Text)
}

func TestNormalize_SortsAndClamps(t *testing.T) {
	t.Parallel()

	input := []segment.Segment{
		{Text: "second", Start: 5.0, Duration: 1.0},
		{Text: "first", Start: -3.0, Duration: 2.0},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 2)
	assert.Equal(t, "first", normalized[0].Text)
	assert.InDelta(t, 0.0, normalized[0].Start, 1e-9)
	assert.Equal(t, "second", normalized[1].Text)
}

func TestNormalize_InfersDurationFromSuccessor(t *testing.T) {
	t.Parallel()

	input := []segment.Segment{
		{Text: "a", Start: 0, Duration: 0},
		{Text: "b", Start: 3.5, Duration: 1.0},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 2)
	assert.InDelta(t, 3.5, normalized[0].Duration, 1e-9)
}

func TestNormalize_LastSegmentWithoutDurationUsesWordEstimate(t *testing.T) {
	t.Parallel()

	// The second segment has neither a duration nor a successor, so its
	// window must come from the word-count estimate and can never be zero.
	input := []segment.Segment{
		{Text: "a", Start: 0, Duration: 2},
		{Text: "b", Start: 3, Duration: 0},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 2)
	assert.InDelta(t, 0.6, normalized[1].Duration, 1e-9)
	assert.Positive(t, normalized[1].Duration)
}

func TestNormalize_TightGapIsFlooredAtMinimumWindow(t *testing.T) {
	t.Parallel()

	input := []segment.Segment{
		{Text: "a", Start: 1.00, Duration: 0},
		{Text: "b", Start: 1.05, Duration: 2},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 2)
	assert.InDelta(t, segment.MinWindowSeconds, normalized[0].Duration, 1e-9)
}

func TestNormalize_InvariantsHoldOnMixedInput(t *testing.T) {
	t.Parallel()

	input := []segment.Segment{
		{Text: "tail with several words here", Start: 40, Duration: 0},
		{Text: "negative duration", Start: 10, Duration: -4},
		{Text: "", Start: 0, Duration: 0},
		{Text: "fine", Start: 20, Duration: 1.5},
		{Text: "zero start", Start: -1, Duration: 0.5},
	}

	normalized := segment.Normalize(input)

	require.Len(t, normalized, 4)

	for i, seg := range normalized {
		assert.NotEmpty(t, seg.Text)
		assert.GreaterOrEqual(t, seg.Start, 0.0)
		assert.GreaterOrEqual(t, seg.Duration, segment.MinWindowSeconds)

		if i > 0 {
			assert.GreaterOrEqual(t, seg.Start, normalized[i-1].Start)
		}
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, segment.Normalize(nil))
	assert.Empty(t, segment.Normalize([]segment.Segment{{Text: "  "}}))
}

func TestEstimateDuration(t *testing.T) {
	t.Parallel()

	// 14 words at 2.8 words/s is 5 seconds.
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	assert.InDelta(t, 5.0, segment.EstimateDuration(text, 0.6), 1e-9)

	// A single short word hits the floor.
	assert.InDelta(t, 0.6, segment.EstimateDuration("hi", 0.6), 1e-9)
}

func TestParseTranscript_RangeLines(t *testing.T) {
	t.Parallel()

	content := "Translated Transcript\n" +
		"============================================================\n\n" +
		"[0.00s - 2.50s] Hello there.\n" +
		"[2.50s - 5.00s] How are you?\n"

	segments := segment.ParseTranscript(content)

	require.Len(t, segments, 2)
	assert.Equal(t, "Hello there.", segments[0].Text)
	assert.InDelta(t, 0.0, segments[0].Start, 1e-9)
	assert.InDelta(t, 2.5, segments[0].Duration, 1e-9)
	assert.InDelta(t, 2.5, segments[1].Start, 1e-9)
}

func TestParseTranscript_StartOnlyLinesResolveAgainstSuccessor(t *testing.T) {
	t.Parallel()

	content := "header\n" +
		"==========\n" +
		"[1.00s] first line\n" +
		"[4.00s] second line\n"

	segments := segment.ParseTranscript(content)

	require.Len(t, segments, 2)
	assert.InDelta(t, 3.0, segments[0].Duration, 1e-9)
	// The trailing line has no successor: word-count estimate with a 1.2s floor.
	assert.InDelta(t, 1.2, segments[1].Duration, 1e-9)
}

func TestParseTranscript_InvertedRangeIsFloored(t *testing.T) {
	t.Parallel()

	content := "==========\n[5.00s - 4.00s] backwards\n"

	segments := segment.ParseTranscript(content)

	require.Len(t, segments, 1)
	assert.InDelta(t, 0.2, segments[0].Duration, 1e-9)
}

func TestParseTranscript_SentenceFallback(t *testing.T) {
	t.Parallel()

	content := "==========\n" +
		"This is the first sentence. And here is another one! Short.\n"

	segments := segment.ParseTranscript(content)

	require.Len(t, segments, 3)
	assert.Equal(t, "This is the first sentence.", segments[0].Text)

	// Segments are laid out back to back.
	cursor := 0.0
	for _, seg := range segments {
		assert.InDelta(t, cursor, seg.Start, 1e-9)
		assert.GreaterOrEqual(t, seg.Duration, 1.2)
		cursor += seg.Duration
	}
}

func TestParseTranscript_NoHeaderRuleYieldsNothing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, segment.ParseTranscript("[0.00s - 1.00s] no header rule before me\n"))
}
