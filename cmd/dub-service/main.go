// main package for the dub-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/dub-service/internal/config"
	"github.com/book-expert/dub-service/internal/dub"
	"github.com/book-expert/dub-service/internal/jobs"
	"github.com/book-expert/dub-service/internal/media"
	"github.com/book-expert/dub-service/internal/objectstore"
	"github.com/book-expert/dub-service/internal/synth"
	"github.com/book-expert/dub-service/internal/worker"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "dub-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve wires the NATS transport, object stores and dubbing engine together
// and blocks until the process is signalled to stop.
func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	transcripts, err := objectstore.New(jetstreamContext, cfg.NATS.TranscriptBucket)
	if err != nil {
		return fmt.Errorf("failed to open transcript bucket: %w", err)
	}

	audio, err := objectstore.New(jetstreamContext, cfg.NATS.AudioBucket)
	if err != nil {
		return fmt.Errorf("failed to open audio bucket: %w", err)
	}

	transcoder := newTranscoder(cfg, log)
	synthesizer := newSynthesizer(cfg, log)
	orchestrator := dub.New(synthesizer, transcoder, cfg.Dub.Workers, log)

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.DubbingRequestedSubject,
		transcripts,
		audio,
		orchestrator,
		jobs.NewRegistry(),
		time.Duration(cfg.Dub.TimeoutSeconds)*time.Second,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.System("Dub-Service initialized. Listening for jobs on subject: %s", cfg.NATS.DubbingRequestedSubject)

	runErr := natsWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped with error: %w", runErr)
	}

	return nil
}

func newTranscoder(cfg *config.Config, log *logger.Logger) *media.FFmpeg {
	if cfg.Dub.FFmpegPath != "" && cfg.Dub.FFprobePath != "" {
		return media.NewWithPaths(cfg.Dub.FFmpegPath, cfg.Dub.FFprobePath, log)
	}

	return media.New(log)
}

func newSynthesizer(cfg *config.Config, log *logger.Logger) *synth.EdgeSynthesizer {
	if cfg.Dub.EdgeTTSPath != "" {
		return synth.NewWithBinary(cfg.Dub.EdgeTTSPath, log)
	}

	return synth.New(log)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
