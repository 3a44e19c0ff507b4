package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/e7canasta/orion-media-player/modules/playback"
)

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
	videoBackends = []string{"ffplay", "surface", "none"}
	audioBackends = []string{"speaker", "none"}
)

// Validate checks the configuration and fills in defaults
func Validate(cfg *Config) error {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !lo.Contains(logLevels, cfg.LogLevel) {
		return fmt.Errorf("log_level must be one of %v, got %q", logLevels, cfg.LogLevel)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !lo.Contains(logFormats, cfg.LogFormat) {
		return fmt.Errorf("log_format must be one of %v, got %q", logFormats, cfg.LogFormat)
	}

	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must be > 0")
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = playback.DefaultShutdownTimeout
	}

	if err := validatePlayback(&cfg.Playback); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if err := validateVideo(&cfg.Video); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	if err := validateAudio(&cfg.Audio); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	return nil
}

func validatePlayback(p *PlaybackConfig) error {
	if p.Until == "" {
		p.Until = "end"
	}
	if _, err := playback.ParseStopCondition(p.Until); err != nil {
		return err
	}

	if p.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be > 0")
	}
	if p.PollInterval == 0 {
		p.PollInterval = 10 * time.Millisecond
	}
	return nil
}

func validateVideo(v *VideoConfig) error {
	if v.Backend == "" {
		v.Backend = "ffplay"
	}
	if !lo.Contains(videoBackends, v.Backend) {
		return fmt.Errorf("backend must be one of %v, got %q", videoBackends, v.Backend)
	}

	// Screen size is all or nothing
	if v.Width < 0 || v.Height < 0 || (v.Width == 0) != (v.Height == 0) {
		return fmt.Errorf("width and height must both be > 0 or both unset, got %dx%d", v.Width, v.Height)
	}

	if v.FFplayPath == "" {
		v.FFplayPath = "ffplay"
	}
	if v.Title == "" {
		v.Title = "mediaplayer"
	}
	return nil
}

func validateAudio(a *AudioConfig) error {
	if a.Backend == "" {
		a.Backend = "speaker"
	}
	if !lo.Contains(audioBackends, a.Backend) {
		return fmt.Errorf("backend must be one of %v, got %q", audioBackends, a.Backend)
	}

	if a.Buffer < 0 {
		return fmt.Errorf("buffer must be > 0")
	}
	if a.Buffer == 0 {
		a.Buffer = 50 * time.Millisecond
	}
	return nil
}
