package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (e.g., MEDIAPLAYER_LOG_LEVEL)
const EnvPrefix = "MEDIAPLAYER"

// Config represents the complete media player configuration
type Config struct {
	LogLevel        string        `yaml:"log_level" envconfig:"LOG_LEVEL"`               // debug, info, warn, error
	LogFormat       string        `yaml:"log_format" envconfig:"LOG_FORMAT"`             // text, json
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"` // bound on joining the pacing tasks (default: 2s)

	Playback PlaybackConfig `yaml:"playback" envconfig:"PLAYBACK"`
	Video    VideoConfig    `yaml:"video" envconfig:"VIDEO"`
	Audio    AudioConfig    `yaml:"audio" envconfig:"AUDIO"`
}

// PlaybackConfig contains player and driver settings
type PlaybackConfig struct {
	Until        string        `yaml:"until" envconfig:"UNTIL"`                 // end, keypress, mouseclick, or a duration
	Loop         bool          `yaml:"loop" envconfig:"LOOP"`                   // replay at end of stream
	NoAudio      bool          `yaml:"no_audio" envconfig:"NO_AUDIO"`           // skip the audio stream entirely
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"` // video task clock polling (default: 10ms)
}

// VideoConfig contains video output settings
type VideoConfig struct {
	Backend    string `yaml:"backend" envconfig:"BACKEND"`         // ffplay, surface, none
	Width      int    `yaml:"width" envconfig:"WIDTH"`             // screen width, 0 = frame width
	Height     int    `yaml:"height" envconfig:"HEIGHT"`           // screen height, 0 = frame height
	Resize     bool   `yaml:"resize" envconfig:"RESIZE"`           // scale frames to fit the screen
	FFplayPath string `yaml:"ffplay_path" envconfig:"FFPLAY_PATH"` // default: ffplay on $PATH
	Title      string `yaml:"title" envconfig:"TITLE"`
}

// AudioConfig contains audio output settings
type AudioConfig struct {
	Backend string        `yaml:"backend" envconfig:"BACKEND"` // speaker, none
	Buffer  time.Duration `yaml:"buffer" envconfig:"BUFFER"`   // device buffer (default: 50ms)
}

// Load reads the YAML file at path (optional, "" skips it), applies
// MEDIAPLAYER_* environment overrides and validates the result.
func Load(fsys afero.Fs, path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Only variables that are set override the file
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
