// dub-cli runs a dubbing job locally against a transcript file, without the
// NATS transport, writing the assembled track (and optionally a remuxed
// video) to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/dub-service/internal/dub"
	"github.com/book-expert/dub-service/internal/media"
	"github.com/book-expert/dub-service/internal/segment"
	"github.com/book-expert/dub-service/internal/synth"
	"github.com/book-expert/logger"
)

// Flag names.
const (
	flagTranscript = "transcript"
	flagOutput     = "output"
	flagVoice      = "voice"
	flagVideo      = "video"
	flagWorkers    = "workers"
)

// Flag descriptions.
const (
	flagTranscriptDesc = "Transcript file with timestamped lines"
	flagOutputDesc     = "Output audio file path (.wav)"
	flagVoiceDesc      = "Voice name (male, female) or a full neural voice id"
	flagVideoDesc      = "Optional video whose audio track is replaced with the dub"
	flagWorkersDesc    = "Concurrent segment workers"
)

const (
	defaultOutputFile = "dubbed.wav"
	logFileName       = "dub-cli.log"
	filePermissions   = 0o600
	dubbedVideoSuffix = "_dubbed.mp4"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	transcript string
	output     string
	voice      string
	video      string
	workers    int
}

func main() {
	err := run()
	if err != nil {
		// The logger may not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.transcript, flagTranscript, "", flagTranscriptDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.StringVar(&flags.voice, flagVoice, synth.DefaultVoice, flagVoiceDesc)
	flag.StringVar(&flags.video, flagVideo, "", flagVideoDesc)
	flag.IntVar(&flags.workers, flagWorkers, dub.DefaultWorkers, flagWorkersDesc)
	flag.Parse()

	return flags
}

func run() error {
	flags := parseFlags()
	if flags.transcript == "" {
		return fmt.Errorf("--%s must be provided", flagTranscript)
	}

	cliLogger, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		closeErr := cliLogger.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	transcriptData, err := os.ReadFile(flags.transcript)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	segments := segment.ParseTranscript(string(transcriptData))
	cliLogger.Info("Parsed %d segments from %s", len(segments), flags.transcript)

	transcoder := media.New(cliLogger)
	orchestrator := dub.New(synth.New(cliLogger), transcoder, flags.workers, cliLogger)

	ctx := context.Background()

	result, err := orchestrator.Run(ctx, segments, flags.voice)
	if err != nil {
		return fmt.Errorf("dubbing failed: %w", err)
	}

	writeErr := os.WriteFile(flags.output, result.Audio, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write dubbed track: %w", writeErr)
	}

	cliLogger.Info("Dubbed track written: %s (%d/%d segments, degraded=%t)",
		flags.output, result.SegmentsSynced, result.SegmentsTotal, result.DegradedTiming)
	fmt.Printf("Dubbed track: %s (%d/%d segments synced)\n",
		flags.output, result.SegmentsSynced, result.SegmentsTotal)

	if result.DegradedTiming {
		fmt.Println("Warning: overlay mix failed, timing is degraded (linear concatenation).")
	}

	if flags.video == "" {
		return nil
	}

	return attachToVideo(ctx, transcoder, flags.video, flags.output)
}

// attachToVideo replaces the video's audio track with the dubbed one.
func attachToVideo(ctx context.Context, transcoder *media.FFmpeg, videoPath, audioPath string) error {
	ext := filepath.Ext(videoPath)
	outputPath := strings.TrimSuffix(videoPath, ext) + dubbedVideoSuffix

	replaceErr := transcoder.ReplaceAudio(ctx, videoPath, audioPath, outputPath)
	if replaceErr != nil {
		return fmt.Errorf("failed to attach dubbed track to video: %w", replaceErr)
	}

	fmt.Printf("Dubbed video: %s\n", outputPath)

	return nil
}
