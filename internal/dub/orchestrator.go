// Package dub drives a dubbing job end to end: per-segment synthesis and
// synchronization under a bounded worker pool, then joint timeline assembly
// with a linear-concat fallback.
package dub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/dub-service/internal/segment"
	"github.com/book-expert/dub-service/internal/timeline"
	"github.com/book-expert/logger"
	"golang.org/x/sync/semaphore"
)

// Fatal job conditions: with zero input or zero synthesized segments there is
// nothing to assemble.
var (
	// ErrNoUsableSegments indicates the transcript held no segment with text.
	ErrNoUsableSegments = errors.New("no usable segments in transcript")
	// ErrNoSegmentsProcessed indicates every segment failed synthesis or sync.
	ErrNoSegmentsProcessed = errors.New("no segments were successfully processed")
)

// DefaultWorkers bounds per-segment concurrency when the configuration does
// not: each worker owns one external synthesis process plus one transcoder
// process at a time.
const DefaultWorkers = 4

// Scratch file naming inside the per-job directory.
const (
	scratchDirPattern = "dubbing_*"
	rawClipFormat     = "seg_raw_%05d.mp3"
	syncedClipFormat  = "seg_%05d.wav"
)

// Result is the terminal state of a successful dubbing job.
type Result struct {
	// Audio is the assembled track, read out of the scratch directory
	// before it is reclaimed.
	Audio []byte

	SegmentsTotal  int
	SegmentsSynced int
	SegmentsFailed int

	// DegradedTiming is set when the overlay mix failed and the track came
	// from the linear-concat fallback, so clip onsets no longer match the
	// transcript instants.
	DegradedTiming bool
}

// Orchestrator coordinates synthesis, synchronization and assembly for one
// job at a time. It owns no shared state between jobs: every Run gets an
// exclusive scratch directory, reclaimed on every exit path.
type Orchestrator struct {
	synthesizer core.SpeechSynthesizer
	media       core.Transcoder
	synchronize *timeline.Synchronizer
	assembler   *timeline.Assembler
	workers     int
	log         *logger.Logger
}

// New creates an Orchestrator. A non-positive worker count falls back to
// DefaultWorkers.
func New(synthesizer core.SpeechSynthesizer, media core.Transcoder, workers int, log *logger.Logger) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Orchestrator{
		synthesizer: synthesizer,
		media:       media,
		synchronize: timeline.NewSynchronizer(media, log),
		assembler:   timeline.NewAssembler(media, log),
		workers:     workers,
		log:         log,
	}
}

// Run produces a dubbed audio track for the given raw segments. Individual
// segment failures are logged and skipped; an overlay-mix failure degrades to
// linear concatenation. Only an empty normalized input, a fully failed
// synthesis phase, or cancellation abort the job.
func (o *Orchestrator) Run(ctx context.Context, segments []segment.Segment, voice string) (*Result, error) {
	normalized := segment.Normalize(segments)
	if len(normalized) == 0 {
		return nil, ErrNoUsableSegments
	}

	scratchDir, err := os.MkdirTemp("", scratchDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(scratchDir)
		if removeErr != nil {
			o.log.Warn("Failed to reclaim scratch directory '%s': %v", scratchDir, removeErr)
		}
	}()

	clips := o.syncSegments(ctx, normalized, voice, scratchDir)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("job cancelled during segment processing: %w", ctxErr)
	}

	if len(clips) == 0 {
		return nil, ErrNoSegmentsProcessed
	}

	trackPath, degraded, assembleErr := o.assemble(ctx, clips, scratchDir)
	if assembleErr != nil {
		return nil, assembleErr
	}

	audio, readErr := os.ReadFile(trackPath)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read assembled track: %w", readErr)
	}

	return &Result{
		Audio:          audio,
		SegmentsTotal:  len(normalized),
		SegmentsSynced: len(clips),
		SegmentsFailed: len(normalized) - len(clips),
		DegradedTiming: degraded,
	}, nil
}

// syncSegments synthesizes and synchronizes every segment under the bounded
// worker pool and returns the surviving clips restored to segment order. Each
// goroutine writes only its own slot of the results slice, so completion
// order cannot reorder the timeline.
func (o *Orchestrator) syncSegments(ctx context.Context, segments []segment.Segment, voice, scratchDir string) []timeline.Clip {
	var waitGroup sync.WaitGroup

	pool := semaphore.NewWeighted(int64(o.workers))
	results := make([]*timeline.Clip, len(segments))

	for index, seg := range segments {
		acquireErr := pool.Acquire(ctx, 1)
		if acquireErr != nil {
			// Cancelled: no further segments are started, in-flight
			// workers drain through the wait below.
			break
		}

		waitGroup.Add(1)

		go func(index int, seg segment.Segment) {
			defer waitGroup.Done()
			defer pool.Release(1)

			clip, processErr := o.processSegment(ctx, index, seg, voice, scratchDir)
			if processErr != nil {
				o.log.Error("Segment %d failed, skipping: %v", index, processErr)

				return
			}

			results[index] = clip
		}(index, seg)
	}

	waitGroup.Wait()

	clips := make([]timeline.Clip, 0, len(results))

	for _, clip := range results {
		if clip != nil {
			clips = append(clips, *clip)
		}
	}

	return clips
}

// processSegment synthesizes one segment and fits the clip into its window.
// The raw synthesis output is removed as soon as the synced clip exists.
func (o *Orchestrator) processSegment(ctx context.Context, index int, seg segment.Segment, voice, scratchDir string) (*timeline.Clip, error) {
	rawPath := filepath.Join(scratchDir, fmt.Sprintf(rawClipFormat, index))
	syncedPath := filepath.Join(scratchDir, fmt.Sprintf(syncedClipFormat, index))

	synthErr := o.synthesizer.Synthesize(ctx, seg.Text, voice, rawPath)
	if synthErr != nil {
		return nil, fmt.Errorf("synthesis: %w", synthErr)
	}

	fitErr := o.synchronize.Fit(ctx, rawPath, syncedPath, seg.Duration)
	if fitErr != nil {
		return nil, fmt.Errorf("synchronization: %w", fitErr)
	}

	removeErr := os.Remove(rawPath)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		o.log.Warn("Failed to remove raw clip '%s': %v", rawPath, removeErr)
	}

	return &timeline.Clip{
		Path:     syncedPath,
		Start:    seg.Start,
		Duration: seg.Duration,
		Index:    index,
	}, nil
}

// assemble builds the final track, degrading to linear concatenation when the
// overlay mix fails for any reason other than cancellation.
func (o *Orchestrator) assemble(ctx context.Context, clips []timeline.Clip, scratchDir string) (string, bool, error) {
	trackPath, mixErr := o.assembler.Assemble(ctx, clips, scratchDir)
	if mixErr == nil {
		return trackPath, false, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", false, fmt.Errorf("job cancelled during assembly: %w", ctxErr)
	}

	o.log.Warn("Overlay mix failed, falling back to linear concatenation: %v", mixErr)

	trackPath, concatErr := o.assembler.Concatenate(ctx, clips, scratchDir)
	if concatErr != nil {
		return "", false, fmt.Errorf("fallback concatenation: %w", concatErr)
	}

	return trackPath, true, nil
}
