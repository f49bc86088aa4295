package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/logger"
)

// tailSeconds is the silent tail kept after the last clip's window so the
// final track never ends mid-sample.
const tailSeconds = 1.0

// Output file names inside the job scratch directory.
const (
	silenceBaseFile = "silence_base.wav"
	mixedTrackFile  = "dub_track.wav"
	concatTrackFile = "dub_track_concat.wav"
)

// ErrNoClips indicates that assembly was requested with zero synced clips.
// This is fatal for the job: there is nothing to place on the timeline.
var ErrNoClips = errors.New("no synced clips to assemble")

// Clip is a synchronized audio asset positioned on the timeline. Its real
// duration equals Duration, and Index preserves original segment order.
type Clip struct {
	Path     string
	Start    float64
	Duration float64
	Index    int
}

// TotalDuration reports the full timeline length for a clip set: the latest
// window end plus a fixed silent tail.
func TotalDuration(clips []Clip) float64 {
	latestEnd := 0.0

	for _, clip := range clips {
		latestEnd = max(latestEnd, clip.Start+clip.Duration)
	}

	return latestEnd + tailSeconds
}

// Assembler places synchronized clips onto a silent base track.
type Assembler struct {
	media core.Transcoder
	log   *logger.Logger
}

// NewAssembler creates an Assembler backed by the given transcoder.
func NewAssembler(media core.Transcoder, log *logger.Logger) *Assembler {
	return &Assembler{
		media: media,
		log:   log,
	}
}

// Assemble builds one continuous track of TotalDuration length with every
// clip overlaid at round(start*1000) milliseconds. The overlay mix is a
// single joint transcoder invocation regardless of clip count.
func (a *Assembler) Assemble(ctx context.Context, clips []Clip, dir string) (string, error) {
	if len(clips) == 0 {
		return "", ErrNoClips
	}

	basePath := filepath.Join(dir, silenceBaseFile)

	silenceErr := a.media.Silence(ctx, basePath, TotalDuration(clips))
	if silenceErr != nil {
		return "", fmt.Errorf("base silence track: %w", silenceErr)
	}

	overlays := make([]core.Overlay, 0, len(clips))
	for _, clip := range clips {
		overlays = append(overlays, core.Overlay{
			Path:    clip.Path,
			DelayMS: int(math.Round(clip.Start * 1000)),
		})
	}

	outputPath := filepath.Join(dir, mixedTrackFile)

	mixErr := a.media.OverlayMix(ctx, basePath, outputPath, overlays)
	if mixErr != nil {
		return "", fmt.Errorf("overlay mix of %d clips: %w", len(clips), mixErr)
	}

	return outputPath, nil
}

// Concatenate is the terminal fallback when the overlay mix fails: clips are
// joined strictly in segment order, trading timing fidelity for guaranteed
// output. Only an empty clip set may fail it.
func (a *Assembler) Concatenate(ctx context.Context, clips []Clip, dir string) (string, error) {
	if len(clips) == 0 {
		return "", ErrNoClips
	}

	paths := make([]string, 0, len(clips))
	for _, clip := range clips {
		paths = append(paths, clip.Path)
	}

	outputPath := filepath.Join(dir, concatTrackFile)

	concatErr := a.media.Concat(ctx, paths, outputPath)
	if concatErr != nil {
		return "", fmt.Errorf("fallback concat of %d clips: %w", len(clips), concatErr)
	}

	return outputPath, nil
}
