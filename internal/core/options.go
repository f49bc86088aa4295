package core

import "errors"

// Validation errors for pipeline options.
var (
	// ErrNoStagesEnabled indicates a job request with every stage switched off.
	ErrNoStagesEnabled = errors.New("no pipeline stages enabled")
	// ErrDubRequiresTranscript indicates a dub request without the transcript stage.
	ErrDubRequiresTranscript = errors.New("dubbing requires the transcript stage")
)

// PipelineOptions enumerates the optional stages of a processing job. It is
// the typed replacement for the loose per-request option maps of earlier
// tooling: the set of stages is closed and validated before any work starts.
type PipelineOptions struct {
	Transcript   bool `json:"transcript"`
	Download720  bool `json:"download720"`
	Download1080 bool `json:"download1080"`
	EnhanceAudio bool `json:"enhanceAudio"`
	Dub          bool `json:"dub"`
}

// DefaultPipelineOptions returns the stage set used when a request carries none.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Transcript:   true,
		Download720:  false,
		Download1080: false,
		EnhanceAudio: false,
		Dub:          true,
	}
}

// Validate rejects stage combinations that cannot produce any output.
func (o PipelineOptions) Validate() error {
	if !o.Transcript && !o.Download720 && !o.Download1080 && !o.EnhanceAudio && !o.Dub {
		return ErrNoStagesEnabled
	}

	if o.Dub && !o.Transcript {
		return ErrDubRequiresTranscript
	}

	return nil
}
