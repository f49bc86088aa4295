// Package timeline fits synthesized clips into their transcript windows and
// assembles them onto a single track at the correct instants.
package timeline

// Operative range of a single tempo stage in the external stretch primitive.
const (
	// StageMin is the slowest tempo a single stage supports. Cumulative
	// ratios below it are clamped up: slowing a clip further is not
	// supported and the loss is accepted.
	StageMin = 0.5

	// StageMax is the fastest tempo a single stage supports.
	StageMax = 2.0
)

// StageChain decomposes a cumulative tempo ratio (real duration over target
// duration) into stages the stretch primitive can apply, each within
// [StageMin, StageMax] and multiplying out to the clamped ratio. The chain is
// never empty, even for a ratio of 1.
func StageChain(ratio float64) []float64 {
	remaining := max(StageMin, ratio)

	var stages []float64

	for remaining > StageMax {
		stages = append(stages, StageMax)
		remaining /= StageMax
	}

	return append(stages, remaining)
}
