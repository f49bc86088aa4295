// Package media implements the transcoding contract on top of the ffmpeg and
// ffprobe command-line tools. Every primitive is one external invocation; the
// filter expressions mirror what each primitive promises and nothing more.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/logger"
)

// Uniform output format for every intermediate asset: mono 44.1 kHz PCM, so
// clips can be mixed and concatenated without resampling surprises.
const (
	sampleRateHz = 44100
	channelCount = 1
	audioCodec   = "pcm_s16le"
)

// Scratch artifact names written next to the mix output.
const (
	mixFilterFile  = "mix_filter.txt"
	concatListFile = "concat_list.txt"
)

// maxDiagnosticBytes bounds how much tool output is carried inside a wrapped
// failure.
const maxDiagnosticBytes = 500

const filePermissions = 0o600

// FFmpeg is the ffmpeg-backed implementation of core.Transcoder.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         *logger.Logger
}

// New locates ffmpeg and ffprobe on PATH and returns a transcoder using them.
// Missing binaries are not an error here: the bare command names are kept and
// the first primitive call will report the real failure.
func New(log *logger.Logger) *FFmpeg {
	ffmpegPath := "ffmpeg"
	if located, err := exec.LookPath("ffmpeg"); err == nil {
		ffmpegPath = located
	}

	ffprobePath := "ffprobe"
	if located, err := exec.LookPath("ffprobe"); err == nil {
		ffprobePath = located
	}

	return NewWithPaths(ffmpegPath, ffprobePath, log)
}

// NewWithPaths returns a transcoder bound to explicit tool locations.
func NewWithPaths(ffmpegPath, ffprobePath string, log *logger.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}
}

// ProbeDuration reports an asset's duration in seconds via ffprobe.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 -- tool path resolved at construction, path is a job-scoped asset
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration of '%s': %w - output: %s", path, err, truncate(output))
	}

	seconds, parseErr := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if parseErr != nil {
		return 0, fmt.Errorf("ffprobe duration of '%s': %w", path, parseErr)
	}

	return max(0, seconds), nil
}

// TimeStretch applies a chain of bounded atempo stages.
func (f *FFmpeg) TimeStretch(ctx context.Context, inputPath, outputPath string, stages []float64) error {
	return f.filterCopy(ctx, "time-stretch", inputPath, outputPath, AtempoChain(stages))
}

// PadTo extends a clip with trailing silence up to the given total length.
func (f *FFmpeg) PadTo(ctx context.Context, inputPath, outputPath string, seconds float64) error {
	filter := fmt.Sprintf("apad=whole_dur=%.6f", seconds)

	return f.filterCopy(ctx, "pad", inputPath, outputPath, filter)
}

// TrimTo hard-cuts a clip to exactly the given length.
func (f *FFmpeg) TrimTo(ctx context.Context, inputPath, outputPath string, seconds float64) error {
	filter := fmt.Sprintf("atrim=0:%.6f", seconds)

	return f.filterCopy(ctx, "trim", inputPath, outputPath, filter)
}

// Silence generates a silent mono track of the given length.
func (f *FFmpeg) Silence(ctx context.Context, outputPath string, seconds float64) error {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRateHz),
		"-t", fmt.Sprintf("%.6f", seconds),
		outputPath,
	}

	return f.run(ctx, "silence", args...)
}

// OverlayMix sums the base track and every delayed input in one invocation.
// The filter graph is written to a script file next to the output so arbitrary
// input counts never hit the command-line length limit.
func (f *FFmpeg) OverlayMix(ctx context.Context, basePath, outputPath string, inputs []core.Overlay) error {
	filterPath := filepath.Join(filepath.Dir(outputPath), mixFilterFile)

	writeErr := os.WriteFile(filterPath, []byte(OverlayFilter(inputs)), filePermissions)
	if writeErr != nil {
		return fmt.Errorf("write mix filter script: %w", writeErr)
	}

	args := []string{"-y", "-i", basePath}
	for _, overlay := range inputs {
		args = append(args, "-i", overlay.Path)
	}

	args = append(args,
		"-filter_complex_script", filterPath,
		"-map", "[out]",
		"-ar", strconv.Itoa(sampleRateHz),
		outputPath,
	)

	return f.run(ctx, "overlay-mix", args...)
}

// Concat joins clips back to back via ffmpeg's concat demuxer.
func (f *FFmpeg) Concat(ctx context.Context, inputPaths []string, outputPath string) error {
	listPath := filepath.Join(filepath.Dir(outputPath), concatListFile)

	writeErr := os.WriteFile(listPath, []byte(ConcatList(inputPaths)), filePermissions)
	if writeErr != nil {
		return fmt.Errorf("write concat list: %w", writeErr)
	}

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c:a", audioCodec,
		"-ar", strconv.Itoa(sampleRateHz),
		outputPath,
	}

	return f.run(ctx, "concat", args...)
}

// ReplaceAudio swaps a video's audio track for the given one. The video
// stream is copied untouched; the new track is padded so it covers the full
// picture and encoded as AAC for container compatibility.
func (f *FFmpeg) ReplaceAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-filter_complex", "[1:a]apad[aout]",
		"-map", "0:v:0",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outputPath,
	}

	return f.run(ctx, "replace-audio", args...)
}

// filterCopy runs a single-input, single-output audio filter in the uniform
// intermediate format.
func (f *FFmpeg) filterCopy(ctx context.Context, primitive, inputPath, outputPath, filter string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-af", filter,
		"-ar", strconv.Itoa(sampleRateHz),
		"-ac", strconv.Itoa(channelCount),
		"-c:a", audioCodec,
		outputPath,
	}

	return f.run(ctx, primitive, args...)
}

// run executes ffmpeg for one primitive, wrapping any failure with the
// primitive name and a truncated diagnostic tail.
func (f *FFmpeg) run(ctx context.Context, primitive string, args ...string) error {
	// #nosec G204 -- tool path resolved at construction, arguments built from job-scoped assets
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w - output: %s", primitive, err, truncate(output))
	}

	return nil
}

// AtempoChain renders a stage chain as an ffmpeg atempo filter expression.
func AtempoChain(stages []float64) string {
	parts := make([]string, 0, len(stages))
	for _, stage := range stages {
		parts = append(parts, fmt.Sprintf("atempo=%.6f", stage))
	}

	return strings.Join(parts, ",")
}

// OverlayFilter renders the joint mix filter graph: each input is resampled
// to the uniform format, delayed to its timeline offset, and summed with the
// base without gain normalization, keeping the longest input's duration.
func OverlayFilter(inputs []core.Overlay) string {
	var builder strings.Builder

	mixLabels := "[0]"

	for i, overlay := range inputs {
		fmt.Fprintf(&builder,
			"[%d]aresample=%d,aformat=channel_layouts=mono,adelay=%d[d%d];",
			i+1, sampleRateHz, overlay.DelayMS, i)
		mixLabels += fmt.Sprintf("[d%d]", i)
	}

	fmt.Fprintf(&builder,
		"%samix=inputs=%d:duration=longest:normalize=0:dropout_transition=0[out]",
		mixLabels, len(inputs)+1)

	return builder.String()
}

// ConcatList renders the concat demuxer's input list, quoting each path.
func ConcatList(paths []string) string {
	var builder strings.Builder

	for _, path := range paths {
		escaped := strings.ReplaceAll(path, "'", `'\''`)
		fmt.Fprintf(&builder, "file '%s'\n", escaped)
	}

	return builder.String()
}

func truncate(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxDiagnosticBytes {
		return text[:maxDiagnosticBytes]
	}

	return text
}
