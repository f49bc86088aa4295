package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/dub-service/internal/segment"
	"github.com/book-expert/logger"
)

// Synchronizer forces a synthesized clip's real duration to equal its
// segment's target window.
type Synchronizer struct {
	media core.Transcoder
	log   *logger.Logger
}

// NewSynchronizer creates a Synchronizer backed by the given transcoder.
func NewSynchronizer(media core.Transcoder, log *logger.Logger) *Synchronizer {
	return &Synchronizer{
		media: media,
		log:   log,
	}
}

// Fit writes a clip of exactly targetSeconds to outputPath. An over-length
// clip is compressed through a stage chain first; an under-length clip is
// never slowed down, only padded. Every branch converges on pad-then-trim so
// residual rounding from the stretch cannot leak into the final duration. An
// unmeasurable input is treated as empty and padded to the full window.
func (s *Synchronizer) Fit(ctx context.Context, inputPath, outputPath string, targetSeconds float64) error {
	targetSeconds = max(segment.MinWindowSeconds, targetSeconds)

	realSeconds, err := s.media.ProbeDuration(ctx, inputPath)
	if err != nil {
		s.log.Warn("Duration probe failed for '%s', padding to full window: %v", inputPath, err)

		realSeconds = 0
	}

	if realSeconds > targetSeconds {
		stages := StageChain(realSeconds / targetSeconds)
		stretchedPath := intermediatePath(outputPath, "stretch")

		stretchErr := s.media.TimeStretch(ctx, inputPath, stretchedPath, stages)
		if stretchErr != nil {
			return fmt.Errorf("time-stretch of '%s': %w", inputPath, stretchErr)
		}

		defer s.removeIntermediate(stretchedPath)

		inputPath = stretchedPath
	}

	paddedPath := intermediatePath(outputPath, "pad")

	padErr := s.media.PadTo(ctx, inputPath, paddedPath, targetSeconds)
	if padErr != nil {
		return fmt.Errorf("pad of '%s': %w", inputPath, padErr)
	}

	defer s.removeIntermediate(paddedPath)

	trimErr := s.media.TrimTo(ctx, paddedPath, outputPath, targetSeconds)
	if trimErr != nil {
		return fmt.Errorf("trim of '%s': %w", paddedPath, trimErr)
	}

	return nil
}

// removeIntermediate deletes a scratch asset produced between stages. The
// whole scratch directory is reclaimed at job end regardless, so a failed
// removal is only worth a warning.
func (s *Synchronizer) removeIntermediate(path string) {
	removeErr := os.Remove(path)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		s.log.Warn("Failed to remove intermediate file '%s': %v", path, removeErr)
	}
}

// intermediatePath derives a stage-scoped sibling of the final output path.
func intermediatePath(outputPath, stage string) string {
	ext := filepath.Ext(outputPath)

	return strings.TrimSuffix(outputPath, ext) + "." + stage + ext
}
