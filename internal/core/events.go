package core

import "github.com/book-expert/events"

// DubbingRequestedEvent asks the service to produce a dubbed audio track for
// a translated transcript stored in the object store under TranscriptKey.
type DubbingRequestedEvent struct {
	Header        events.EventHeader `json:"header"`
	TranscriptKey string             `json:"transcript_key"`
	Voice         string             `json:"voice,omitempty"`
	Options       *PipelineOptions   `json:"options,omitempty"`
}

// DubbingCompletedEvent reports the terminal state of a dubbing job. On
// success AudioKey names the assembled track in the object store; on failure
// Error carries the reason and AudioKey is empty.
type DubbingCompletedEvent struct {
	Header         events.EventHeader `json:"header"`
	AudioKey       string             `json:"audio_key,omitempty"`
	SegmentsTotal  int                `json:"segments_total"`
	SegmentsSynced int                `json:"segments_synced"`
	SegmentsFailed int                `json:"segments_failed"`
	DegradedTiming bool               `json:"degraded_timing"`
	Error          string             `json:"error,omitempty"`
}
