package clock

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Status is the run state of a Clock.
type Status int32

const (
	// StatusPaused means time is frozen; a new Clock starts Paused.
	StatusPaused Status = iota
	// StatusRunning means time advances with the time source.
	StatusRunning
	// StatusStopped means the timekeeping goroutine has been told to exit.
	StatusStopped
)

// String returns a human-readable representation of the status
func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// MinFPS is the lowest accepted frame rate.
	MinFPS = 1.0
	// MinMaxDuration is the lowest accepted duration limit.
	MinMaxDuration = time.Second
	// DefaultTick is the refresh period of the timekeeping goroutine.
	DefaultTick = time.Millisecond
)

// TimeSource provides wall time to a Clock.
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Option configures a Clock at construction time.
type Option func(*Clock) error

// WithFPS sets the frame rate used by CurrentFrame and FrameInterval.
func WithFPS(fps float64) Option {
	return func(c *Clock) error { return c.setFPSLocked(fps) }
}

// WithMaxDuration sets the duration after which the clock stops itself.
func WithMaxDuration(d time.Duration) Option {
	return func(c *Clock) error { return c.setMaxDurationLocked(d) }
}

// WithTimeSource replaces the system time source.
func WithTimeSource(src TimeSource) Option {
	return func(c *Clock) error {
		if src == nil {
			return fmt.Errorf("%w: nil time source", ErrConfiguration)
		}
		c.now = src
		return nil
	}
}

// WithTick sets the refresh period of the timekeeping goroutine.
func WithTick(tick time.Duration) Option {
	return func(c *Clock) error {
		if tick <= 0 {
			return fmt.Errorf("%w: tick must be positive, got %v", ErrConfiguration, tick)
		}
		c.tick = tick
		return nil
	}
}

// Clock is a pausable stopwatch with an optional frame rate and duration limit.
//
// Thread-safety: all methods are safe for concurrent use. Time is read by the
// player's pacing goroutines while the controlling goroutine pauses and stops.
type Clock struct {
	mu sync.Mutex

	status      Status
	fps         float64       // 0 = unset
	maxDuration time.Duration // 0 = unset

	previous      []time.Duration // completed run intervals
	current       time.Duration   // live interval, refreshed every tick
	intervalStart time.Time

	now  TimeSource
	tick time.Duration

	// done is closed when the timekeeping goroutine exits (nil before first Start)
	done chan struct{}
}

// New creates a Paused clock.
//
// Returns an error wrapping ErrConfiguration if any option is out of range.
func New(opts ...Option) (*Clock, error) {
	c := &Clock{
		status: StatusPaused,
		now:    systemTime{},
		tick:   DefaultTick,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ValidateFPS reports whether fps is an acceptable frame rate.
func ValidateFPS(fps float64) error {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps < MinFPS {
		return fmt.Errorf("%w: fps %.3f must be >= %.1f", ErrConfiguration, fps, MinFPS)
	}
	return nil
}

// ValidateMaxDuration reports whether d is an acceptable duration limit.
func ValidateMaxDuration(d time.Duration) error {
	if d < MinMaxDuration {
		return fmt.Errorf("%w: max duration %v must be >= %v", ErrConfiguration, d, MinMaxDuration)
	}
	return nil
}

// SetFPS sets the frame rate. The previous value is kept if fps is invalid.
func (c *Clock) SetFPS(fps float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setFPSLocked(fps)
}

func (c *Clock) setFPSLocked(fps float64) error {
	if err := ValidateFPS(fps); err != nil {
		return err
	}
	c.fps = fps
	return nil
}

// SetMaxDuration sets the duration limit. The previous value is kept if d is invalid.
func (c *Clock) SetMaxDuration(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setMaxDurationLocked(d)
}

func (c *Clock) setMaxDurationLocked(d time.Duration) error {
	if err := ValidateMaxDuration(d); err != nil {
		return err
	}
	c.maxDuration = d
	return nil
}

// FPS returns the configured frame rate, or 0 if unset.
func (c *Clock) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// MaxDuration returns the duration limit, or 0 if unset.
func (c *Clock) MaxDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxDuration
}

// Status returns the current run state.
func (c *Clock) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Reset clears accumulated time without changing the status.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Clock) resetLocked() {
	c.previous = c.previous[:0]
	c.current = 0
	c.intervalStart = c.now.Now()
}

// Pause toggles between Running and Paused.
//
// Running → Paused moves the live interval into history. Paused → Running
// opens a new interval. On a Stopped clock Pause is a no-op and returns false.
func (c *Clock) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusRunning:
		c.previous = append(c.previous, c.now.Now().Sub(c.intervalStart))
		c.current = 0
		c.status = StatusPaused
		return true
	case StatusPaused:
		c.intervalStart = c.now.Now()
		c.status = StatusRunning
		return true
	default:
		slog.Debug("clock: pause ignored, clock is stopped")
		return false
	}
}

// Start restarts time at zero and launches the timekeeping goroutine.
//
// If the goroutine is already active and the clock has not been stopped,
// Start is a no-op and returns false. A Start issued right after Stop waits
// for the previous goroutine to drain before launching a new one.
func (c *Clock) Start() bool {
	c.mu.Lock()
	prev := c.done
	if prev != nil && c.status != StatusStopped && !isClosed(prev) {
		c.mu.Unlock()
		slog.Info("clock: already running")
		return false
	}
	c.mu.Unlock()

	if prev != nil {
		<-prev
	}

	c.mu.Lock()
	if c.done != prev {
		// Lost a race with a concurrent Start
		c.mu.Unlock()
		slog.Info("clock: already running")
		return false
	}
	c.resetLocked()
	c.status = StatusRunning
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	go c.run(done)
	return true
}

// Stop halts the clock and clears accumulated time.
//
// The timekeeping goroutine exits within one tick; Done reports when it has.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusStopped
	c.resetLocked()
}

// Done returns a channel closed when the timekeeping goroutine exits.
// Before the first Start the returned channel is already closed.
func (c *Clock) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// run is the timekeeping goroutine.
func (c *Clock) run(done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		c.mu.Lock()
		if c.status == StatusStopped {
			c.mu.Unlock()
			return
		}
		if c.status == StatusRunning {
			c.current = c.now.Now().Sub(c.intervalStart)
		}
		if c.maxDuration > 0 && c.timeLocked() > c.maxDuration {
			// Freeze at the final value so readers can observe the overrun
			if c.status == StatusRunning {
				c.previous = append(c.previous, c.current)
				c.current = 0
			}
			c.status = StatusStopped
			elapsed := c.timeLocked()
			c.mu.Unlock()
			slog.Debug("clock: max duration reached, stopping",
				"elapsed", elapsed,
				"max_duration", c.maxDuration,
			)
			return
		}
		c.mu.Unlock()

		<-ticker.C
	}
}

// Time returns the elapsed playback time.
func (c *Clock) Time() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLocked()
}

func (c *Clock) timeLocked() time.Duration {
	var total time.Duration
	for _, d := range c.previous {
		total += d
	}
	if c.status == StatusRunning {
		return total + c.now.Now().Sub(c.intervalStart)
	}
	return total + c.current
}

// CurrentFrame returns floor(fps × time).
func (c *Clock) CurrentFrame() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fps == 0 {
		return 0, ErrFPSUnset
	}
	return int64(math.Floor(c.fps * c.timeLocked().Seconds())), nil
}

// Position returns the elapsed time and the frame visible at that time,
// both taken from the same reading. The time is valid even when the frame
// rate is unset.
func (c *Clock) Position() (time.Duration, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timeLocked()
	if c.fps == 0 {
		return t, 0, ErrFPSUnset
	}
	return t, int64(math.Floor(c.fps * t.Seconds())), nil
}

// FrameInterval returns the duration of a single frame.
func (c *Clock) FrameInterval() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fps == 0 {
		return 0, ErrFPSUnset
	}
	return time.Duration(float64(time.Second) / c.fps), nil
}

// String implements fmt.Stringer.
func (c *Clock) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timeLocked()
	if c.fps == 0 {
		return fmt.Sprintf("Clock [current time: %.3fs]", t.Seconds())
	}
	frame := int64(math.Floor(c.fps * t.Seconds()))
	return fmt.Sprintf("Clock [current time: %.3fs, fps: %.2f, current_frame: %d]", t.Seconds(), c.fps, frame)
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
