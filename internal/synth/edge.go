// Package synth implements the speech-synthesis contract by driving the
// edge-tts command-line tool.
package synth

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/book-expert/logger"
	backoff "github.com/cenkalti/backoff/v4"
)

// ErrTextEmpty indicates a synthesis request without any text to speak.
var ErrTextEmpty = errors.New("text cannot be empty")

// DefaultVoice is the named voice used when a request carries none.
const DefaultVoice = "male"

// Retry tuning for transient synthesis failures (the tool talks to a remote
// speech service and individual calls fail sporadically).
const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
	retryMaxElapsed      = 30 * time.Second
)

const maxDiagnosticBytes = 500

// voices maps friendly voice names to neural voice identifiers.
var voices = map[string]string{
	"male":   "pt-BR-AntonioNeural",
	"female": "pt-BR-FranciscaNeural",
}

// ResolveVoice maps a friendly voice name to its neural voice identifier.
// A value already shaped like a full identifier passes through; anything
// unknown resolves to the default voice.
func ResolveVoice(name string) string {
	if identifier, ok := voices[name]; ok {
		return identifier
	}

	if strings.Contains(name, "-") {
		return name
	}

	return voices[DefaultVoice]
}

// EdgeSynthesizer synthesizes speech clips by invoking the edge-tts binary.
type EdgeSynthesizer struct {
	binaryPath string
	log        *logger.Logger
}

// New locates edge-tts on PATH and returns a synthesizer using it. A missing
// binary is reported by the first synthesis call, not here.
func New(log *logger.Logger) *EdgeSynthesizer {
	binaryPath := "edge-tts"
	if located, err := exec.LookPath("edge-tts"); err == nil {
		binaryPath = located
	}

	return NewWithBinary(binaryPath, log)
}

// NewWithBinary returns a synthesizer bound to an explicit tool location.
func NewWithBinary(binaryPath string, log *logger.Logger) *EdgeSynthesizer {
	return &EdgeSynthesizer{
		binaryPath: binaryPath,
		log:        log,
	}
}

// Synthesize writes a speech clip for the given text to outputPath, retrying
// transient failures with exponential backoff. No guarantee is made about the
// clip's duration.
func (s *EdgeSynthesizer) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextEmpty
	}

	attempt := func() error {
		return s.invoke(ctx, text, ResolveVoice(voice), outputPath)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	policy.MaxElapsedTime = retryMaxElapsed

	retryErr := backoff.Retry(attempt, backoff.WithContext(policy, ctx))
	if retryErr != nil {
		return fmt.Errorf("synthesis of %d chars: %w", len(text), retryErr)
	}

	return nil
}

func (s *EdgeSynthesizer) invoke(ctx context.Context, text, voiceID, outputPath string) error {
	args := []string{
		"--voice", voiceID,
		"--text", text,
		"--write-media", outputPath,
	}

	// #nosec G204 -- tool path resolved at construction, text comes from the job transcript
	cmd := exec.CommandContext(ctx, s.binaryPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("edge-tts execution failed: %w - output: %s", err, truncate(output))
	}

	return nil
}

func truncate(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxDiagnosticBytes {
		return text[:maxDiagnosticBytes]
	}

	return text
}
