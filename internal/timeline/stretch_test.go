package timeline_test

import (
	"testing"

	"github.com/book-expert/dub-service/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageProduct(stages []float64) float64 {
	product := 1.0
	for _, stage := range stages {
		product *= stage
	}

	return product
}

func TestStageChain_IdentityRatioStillYieldsOneStage(t *testing.T) {
	t.Parallel()

	stages := timeline.StageChain(1.0)

	require.Len(t, stages, 1)
	assert.InDelta(t, 1.0, stages[0], 1e-9)
}

func TestStageChain_KnownDecomposition(t *testing.T) {
	t.Parallel()

	// A 5.0s clip against a 2.0s window: ratio 2.5 splits into 2.0 × 1.25.
	stages := timeline.StageChain(2.5)

	require.Len(t, stages, 2)
	assert.InDelta(t, 2.0, stages[0], 1e-9)
	assert.InDelta(t, 1.25, stages[1], 1e-9)
}

func TestStageChain_RatioBelowFloorIsClamped(t *testing.T) {
	t.Parallel()

	stages := timeline.StageChain(0.2)

	require.Len(t, stages, 1)
	assert.InDelta(t, timeline.StageMin, stages[0], 1e-9)
}

func TestStageChain_ProductAndRangeAcrossSweep(t *testing.T) {
	t.Parallel()

	for ratio := 0.5; ratio <= 100.0; ratio += 0.37 {
		stages := timeline.StageChain(ratio)
		require.NotEmpty(t, stages)

		for _, stage := range stages {
			assert.GreaterOrEqual(t, stage, timeline.StageMin)
			assert.LessOrEqual(t, stage, timeline.StageMax)
		}

		assert.InEpsilon(t, ratio, stageProduct(stages), 1e-6, "ratio %f", ratio)
	}
}
