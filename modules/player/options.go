package player

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/orion-media-player/modules/clock"
	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// DefaultPollInterval is how often the video task re-reads the clock.
const DefaultPollInterval = 10 * time.Millisecond

// VideoFunc receives each produced video frame.
type VideoFunc func(mediasource.VideoFrame) error

// AudioFunc receives each produced audio chunk.
type AudioFunc func(mediasource.AudioChunk) error

// Option configures a Player at construction time.
type Option func(*Player) error

// WithVideoFunc sets the video callback (default: none).
func WithVideoFunc(fn VideoFunc) Option {
	return func(p *Player) error {
		p.onVideo = fn
		return nil
	}
}

// WithAudioFunc sets the audio callback (default: none).
func WithAudioFunc(fn AudioFunc) Option {
	return func(p *Player) error {
		p.onAudio = fn
		return nil
	}
}

// WithPlayAudio controls whether the audio stream is opened (default: true).
func WithPlayAudio(enabled bool) Option {
	return func(p *Player) error {
		p.playAudio = enabled
		return nil
	}
}

// WithPollInterval sets the video task's polling period.
func WithPollInterval(d time.Duration) Option {
	return func(p *Player) error {
		if d <= 0 {
			return fmt.Errorf("player: poll interval must be positive, got %v", d)
		}
		p.pollInterval = d
		return nil
	}
}

// WithClock replaces the player's clock (e.g., one driven by a manual time
// source in tests). The player takes ownership.
func WithClock(c *clock.Clock) Option {
	return func(p *Player) error {
		if c == nil {
			return fmt.Errorf("player: nil clock")
		}
		p.clock = c
		return nil
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) error {
		if l != nil {
			p.logger = l
		}
		return nil
	}
}
