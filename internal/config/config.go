// Package config provides the configuration structure for the dub-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                     string `toml:"url"`
	DubbingRequestedSubject string `toml:"dubbing_requested_subject"`
	DubbingCompletedSubject string `toml:"dubbing_completed_subject"`
	TranscriptBucket        string `toml:"transcript_bucket"`
	AudioBucket             string `toml:"audio_bucket"`
}

// DubConfig holds the specific configuration for the dubbing engine.
type DubConfig struct {
	Voice          string `toml:"voice"`
	Workers        int    `toml:"workers"`
	FFmpegPath     string `toml:"ffmpeg_path"`
	FFprobePath    string `toml:"ffprobe_path"`
	EdgeTTSPath    string `toml:"edge_tts_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS  NATSConfig  `toml:"nats"`
	Dub   DubConfig   `toml:"dub_service"`
	Paths PathsConfig `toml:"paths"`
}

// Load loads the configuration for the dub-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
