// Package worker provides a NATS worker that processes dubbing jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/dub-service/internal/dub"
	"github.com/book-expert/dub-service/internal/jobs"
	"github.com/book-expert/dub-service/internal/segment"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultJobTimeout bounds one dubbing job end to end. Long transcripts mean
// hundreds of external tool invocations, so this is far above a request
// timeout but still finite.
const DefaultJobTimeout = 15 * time.Minute

// DubRunner runs one dubbing job over raw transcript segments.
type DubRunner interface {
	Run(ctx context.Context, segments []segment.Segment, voice string) (*dub.Result, error)
}

// NatsWorker listens for dubbing jobs on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	transcripts    core.ObjectStore
	audio          core.ObjectStore
	runner         DubRunner
	registry       *jobs.Registry
	jobTimeout     time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. A non-positive
// timeout falls back to DefaultJobTimeout.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	transcripts core.ObjectStore,
	audio core.ObjectStore,
	runner DubRunner,
	registry *jobs.Registry,
	jobTimeout time.Duration,
	log *logger.Logger,
) (*NatsWorker, error) {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		transcripts:    transcripts,
		audio:          audio,
		runner:         runner,
		registry:       registry,
		jobTimeout:     jobTimeout,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	var event core.DubbingRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal dubbing request: %v", err)

		return
	}

	reply := w.processJob(&event)
	reply.Header = event.Header

	w.publishReply(msg, reply)
}

// processJob registers the job, runs it under the job timeout, and shapes the
// terminal reply. Per-job failures become failure replies, never silence.
func (w *NatsWorker) processJob(event *core.DubbingRequestedEvent) *core.DubbingCompletedEvent {
	options := core.DefaultPipelineOptions()
	if event.Options != nil {
		options = *event.Options
	}

	validationErr := options.Validate()
	if validationErr != nil {
		w.log.Error("Invalid pipeline options for workflow %s: %v", event.Header.WorkflowID, validationErr)

		return &core.DubbingCompletedEvent{Error: validationErr.Error()}
	}

	jobID, jobCtx := w.registry.Begin(context.Background())

	ctx, cancel := context.WithTimeout(jobCtx, w.jobTimeout)
	defer cancel()

	audioKey, result, runErr := w.runDubbing(ctx, jobID, event)
	if runErr != nil {
		w.log.Error("Dubbing job %s (workflow %s) failed: %v", jobID, event.Header.WorkflowID, runErr)

		finishErr := w.registry.Finish(jobID, jobs.StatusFailed, runErr.Error())
		if finishErr != nil {
			w.log.Warn("Failed to conclude job %s: %v", jobID, finishErr)
		}

		return &core.DubbingCompletedEvent{Error: runErr.Error()}
	}

	detail := fmt.Sprintf("%d/%d segments synced", result.SegmentsSynced, result.SegmentsTotal)

	finishErr := w.registry.Finish(jobID, jobs.StatusDone, detail)
	if finishErr != nil {
		w.log.Warn("Failed to conclude job %s: %v", jobID, finishErr)
	}

	return &core.DubbingCompletedEvent{
		AudioKey:       audioKey,
		SegmentsTotal:  result.SegmentsTotal,
		SegmentsSynced: result.SegmentsSynced,
		SegmentsFailed: result.SegmentsFailed,
		DegradedTiming: result.DegradedTiming,
	}
}

// runDubbing handles the core flow: download the transcript, run the
// orchestrator, upload the assembled track.
func (w *NatsWorker) runDubbing(ctx context.Context, jobID string, event *core.DubbingRequestedEvent) (string, *dub.Result, error) {
	transcriptData, err := w.transcripts.Download(ctx, event.TranscriptKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download transcript for key '%s': %w", event.TranscriptKey, err)
	}

	segments := segment.ParseTranscript(string(transcriptData))

	detailErr := w.registry.SetDetail(jobID, fmt.Sprintf("dubbing %d segments", len(segments)))
	if detailErr != nil {
		w.log.Warn("Failed to update job %s detail: %v", jobID, detailErr)
	}

	result, runErr := w.runner.Run(ctx, segments, event.Voice)
	if runErr != nil {
		return "", nil, fmt.Errorf("failed to dub transcript: %w", runErr)
	}

	audioKey := uuid.NewString() + ".wav"

	uploadErr := w.audio.Upload(ctx, audioKey, result.Audio)
	if uploadErr != nil {
		return "", nil, fmt.Errorf("failed to upload dubbed track for key '%s': %w", audioKey, uploadErr)
	}

	return audioKey, result, nil
}

// publishReply marshals and responds with the DubbingCompletedEvent.
func (w *NatsWorker) publishReply(msg *nats.Msg, reply *core.DubbingCompletedEvent) {
	replyData, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply event for workflow %s: %v", reply.Header.WorkflowID, err)

		return
	}

	respondErr := msg.Respond(replyData)
	if respondErr != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", reply.Header.WorkflowID, respondErr)
	}
}
