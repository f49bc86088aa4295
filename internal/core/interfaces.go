// Package core defines the core business interfaces and contracts for the dub service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// SpeechSynthesizer defines the interface for the external text-to-speech
// collaborator. The synthesized clip is written to outputPath; no timing
// guarantee is made about its duration.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice, outputPath string) error
}

// Overlay describes one delayed input of an overlay mix: an audio asset
// placed DelayMS milliseconds into the base track.
type Overlay struct {
	Path    string
	DelayMS int
}

// Transcoder defines the narrow contract with the external transcoding and
// mixing engine. Every asset is a file path; every primitive may fail
// independently and must honor context cancellation.
type Transcoder interface {
	// ProbeDuration reports the real duration of an asset in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// TimeStretch applies a chain of tempo stages, each within [0.5, 2.0].
	TimeStretch(ctx context.Context, inputPath, outputPath string, stages []float64) error

	// PadTo extends an asset with trailing silence up to the given length.
	PadTo(ctx context.Context, inputPath, outputPath string, seconds float64) error

	// TrimTo hard-cuts an asset to exactly the given length.
	TrimTo(ctx context.Context, inputPath, outputPath string, seconds float64) error

	// Silence generates a silent asset of the given length.
	Silence(ctx context.Context, outputPath string, seconds float64) error

	// OverlayMix sums the base asset and all delayed inputs into one track,
	// without gain normalization, keeping the longest input's duration.
	OverlayMix(ctx context.Context, basePath, outputPath string, inputs []Overlay) error

	// Concat joins assets back to back in the given order.
	Concat(ctx context.Context, inputPaths []string, outputPath string) error

	// ReplaceAudio swaps a video's audio track for the given one, copying
	// the video stream untouched.
	ReplaceAudio(ctx context.Context, videoPath, audioPath, outputPath string) error
}
