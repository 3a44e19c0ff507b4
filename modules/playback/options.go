package playback

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/e7canasta/orion-media-player/modules/sink"
)

const (
	// DefaultPollInterval is the driver loop period
	DefaultPollInterval = 5 * time.Millisecond
	// DefaultShutdownTimeout bounds how long Run waits for the pacing tasks
	DefaultShutdownTimeout = 2 * time.Second
)

// Trigger selects when the event handler runs
type Trigger int

const (
	// TriggerOnInput calls the handler once per input event
	TriggerOnInput Trigger = iota
	// TriggerEveryFrame calls the handler after every shown frame, with the
	// pending input or an EventFrame if there is none
	TriggerEveryFrame
)

// EventHandler reacts to input during playback. Returning false ends the
// run; returning an error aborts it with ErrEventHandler.
//
// The handler runs on the driver goroutine and may use Controls freely.
type EventHandler func(ev sink.Event, c *Controls) (continuePlayback bool, err error)

// Option configures a Driver
type Option func(*Driver) error

// WithStopCondition sets when the run ends (default: UntilEnd)
func WithStopCondition(c StopCondition) Option {
	return func(d *Driver) error {
		d.stop = c
		return nil
	}
}

// WithLoop replays the media from the start at end of stream
func WithLoop(loop bool) Option {
	return func(d *Driver) error {
		d.loop = loop
		return nil
	}
}

// WithEventHandler installs a handler that replaces the stop-condition
// handling of key and mouse events
func WithEventHandler(h EventHandler, trigger Trigger) Option {
	return func(d *Driver) error {
		d.handler = h
		d.trigger = trigger
		return nil
	}
}

// WithScreen sets the display size (default: the frame size)
func WithScreen(size image.Point, resize bool) Option {
	return func(d *Driver) error {
		if size.X <= 0 || size.Y <= 0 {
			return fmt.Errorf("playback: invalid screen size %v", size)
		}
		d.screen = size
		d.resize = resize
		return nil
	}
}

// WithPollInterval sets the driver loop period
func WithPollInterval(interval time.Duration) Option {
	return func(d *Driver) error {
		if interval <= 0 {
			return fmt.Errorf("playback: poll interval must be positive, got %v", interval)
		}
		d.pollInterval = interval
		return nil
	}
}

// WithShutdownTimeout bounds how long Run waits for the pacing tasks to exit
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(d *Driver) error {
		if timeout <= 0 {
			return fmt.Errorf("playback: shutdown timeout must be positive, got %v", timeout)
		}
		d.shutdownTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger (default: slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) error {
		if l != nil {
			d.logger = l
		}
		return nil
	}
}
