package clock_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/clock"
	"github.com/e7canasta/orion-media-player/modules/clock/clocktest"
)

func newManualClock(t *testing.T, opts ...clock.Option) (*clock.Clock, *clocktest.Source) {
	t.Helper()
	src := clocktest.New(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c, err := clock.New(append([]clock.Option{clock.WithTimeSource(src)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c, src
}

func TestNewClockIsPaused(t *testing.T) {
	c, src := newManualClock(t)

	assert.Equal(t, clock.StatusPaused, c.Status())
	src.Advance(3 * time.Second)
	assert.Equal(t, time.Duration(0), c.Time(), "time must not advance before Start")

	select {
	case <-c.Done():
	default:
		t.Fatal("Done() must be closed before the first Start")
	}
}

// TestPauseAccumulatesIntervals validates time = sum(completed intervals) + live interval.
func TestPauseAccumulatesIntervals(t *testing.T) {
	c, src := newManualClock(t)

	require.True(t, c.Start())
	src.Advance(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.Time())

	require.True(t, c.Pause())
	assert.Equal(t, clock.StatusPaused, c.Status())
	src.Advance(5 * time.Second)
	assert.Equal(t, 2*time.Second, c.Time(), "time must be frozen while paused")

	require.True(t, c.Pause())
	assert.Equal(t, clock.StatusRunning, c.Status())
	src.Advance(1500 * time.Millisecond)
	assert.Equal(t, 3500*time.Millisecond, c.Time())
}

// TestPauseSequenceProperty runs random pause/advance sequences and checks that
// time never decreases and always equals the running total.
func TestPauseSequenceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		c, src := newManualClock(t)
		require.True(t, c.Start())

		var expected time.Duration
		running := true
		last := c.Time()

		for step := 0; step < 50; step++ {
			d := time.Duration(rng.Intn(200)) * time.Millisecond
			src.Advance(d)
			if running {
				expected += d
			}

			if rng.Intn(3) == 0 {
				require.True(t, c.Pause())
				running = !running
			}

			now := c.Time()
			require.GreaterOrEqual(t, now, last, "run %d step %d: time decreased", run, step)
			require.Equal(t, expected, now, "run %d step %d", run, step)
			last = now
		}
		c.Stop()
	}
}

func TestCurrentFrame(t *testing.T) {
	testCases := []struct {
		name    string
		fps     float64
		elapsed time.Duration
	}{
		{"film", 23.976, 10 * time.Second},
		{"pal", 25, 1039 * time.Millisecond},
		{"ntsc", 29.97, 4*time.Second + 7*time.Millisecond},
		{"minimum rate", 1.0, 2999 * time.Millisecond},
		{"high rate", 60, 333 * time.Millisecond},
		{"zero", 25, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, src := newManualClock(t, clock.WithFPS(tc.fps))
			require.True(t, c.Start())
			src.Advance(tc.elapsed)

			frame, err := c.CurrentFrame()
			require.NoError(t, err)
			assert.Equal(t, int64(math.Floor(tc.fps*c.Time().Seconds())), frame)

			interval, err := c.FrameInterval()
			require.NoError(t, err)
			assert.InDelta(t, 1.0/tc.fps, interval.Seconds(), 1e-9)
		})
	}
}

// TestPositionSingleReading checks that time and frame come from one
// reading even when the time source moves on every call.
func TestPositionSingleReading(t *testing.T) {
	c, src := newManualClock(t, clock.WithFPS(25))
	require.True(t, c.Start())
	src.SetStep(7 * time.Millisecond)

	for i := 0; i < 200; i++ {
		now, frame, err := c.Position()
		require.NoError(t, err)
		require.Equal(t, int64(math.Floor(25*now.Seconds())), frame, "reading %d at %v", i, now)
	}

	bare, _ := newManualClock(t)
	_, _, err := bare.Position()
	require.ErrorIs(t, err, clock.ErrFPSUnset)
}

func TestFrameQueriesWithoutFPS(t *testing.T) {
	c, _ := newManualClock(t)

	_, err := c.CurrentFrame()
	require.ErrorIs(t, err, clock.ErrFPSUnset)
	require.ErrorIs(t, err, clock.ErrConfiguration)

	_, err = c.FrameInterval()
	require.ErrorIs(t, err, clock.ErrConfiguration)
}

func TestRangeValidation(t *testing.T) {
	t.Run("fps below minimum keeps previous value", func(t *testing.T) {
		c, _ := newManualClock(t, clock.WithFPS(25))
		err := c.SetFPS(0.5)
		require.ErrorIs(t, err, clock.ErrConfiguration)
		assert.Equal(t, 25.0, c.FPS())
	})

	t.Run("fps boundary accepted", func(t *testing.T) {
		c, _ := newManualClock(t)
		require.NoError(t, c.SetFPS(1.0))
		assert.Equal(t, 1.0, c.FPS())
	})

	t.Run("fps NaN rejected", func(t *testing.T) {
		c, _ := newManualClock(t)
		require.ErrorIs(t, c.SetFPS(math.NaN()), clock.ErrConfiguration)
		assert.Equal(t, 0.0, c.FPS())
	})

	t.Run("max duration below minimum keeps previous value", func(t *testing.T) {
		c, _ := newManualClock(t, clock.WithMaxDuration(10*time.Second))
		err := c.SetMaxDuration(500 * time.Millisecond)
		require.ErrorIs(t, err, clock.ErrConfiguration)
		assert.Equal(t, 10*time.Second, c.MaxDuration())
	})

	t.Run("max duration boundary accepted", func(t *testing.T) {
		c, _ := newManualClock(t)
		require.NoError(t, c.SetMaxDuration(time.Second))
		assert.Equal(t, time.Second, c.MaxDuration())
	})

	t.Run("constructor rejects invalid options", func(t *testing.T) {
		_, err := clock.New(clock.WithFPS(0.5))
		require.ErrorIs(t, err, clock.ErrConfiguration)

		_, err = clock.New(clock.WithTick(0))
		require.ErrorIs(t, err, clock.ErrConfiguration)
	})
}

func TestStartIsIdempotent(t *testing.T) {
	c, src := newManualClock(t)

	require.True(t, c.Start())
	src.Advance(time.Second)
	assert.False(t, c.Start(), "second Start must report already running")
	assert.Equal(t, time.Second, c.Time(), "rejected Start must not reset time")

	require.True(t, c.Pause())
	assert.False(t, c.Start(), "a paused clock still owns its goroutine")
}

func TestStopResetsAndGoroutineExits(t *testing.T) {
	c, src := newManualClock(t)

	require.True(t, c.Start())
	done := c.Done()
	src.Advance(4 * time.Second)

	c.Stop()
	assert.Equal(t, clock.StatusStopped, c.Status())
	assert.Equal(t, time.Duration(0), c.Time())
	assert.False(t, c.Pause(), "pause on a stopped clock is a no-op")
	assert.Equal(t, clock.StatusStopped, c.Status())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timekeeping goroutine did not exit after Stop")
	}

	// Restart right away; the clock is reusable after Stop
	require.True(t, c.Start())
	src.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, c.Time())
}

func TestStartRightAfterStop(t *testing.T) {
	c, _ := newManualClock(t)

	for i := 0; i < 10; i++ {
		require.True(t, c.Start(), "iteration %d", i)
		c.Stop()
	}
}

// TestMaxDurationStopsClock checks that the duration limit is enforced and that
// the final time stays observable.
func TestMaxDurationStopsClock(t *testing.T) {
	c, src := newManualClock(t, clock.WithMaxDuration(time.Second))

	require.True(t, c.Start())
	src.Advance(1500 * time.Millisecond)

	require.Eventually(t, func() bool {
		return c.Status() == clock.StatusStopped
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1500*time.Millisecond, c.Time(), "time frozen at the overrun")
	src.Advance(time.Second)
	assert.Equal(t, 1500*time.Millisecond, c.Time())

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("timekeeping goroutine did not exit at max duration")
	}
}

func TestResetKeepsStatus(t *testing.T) {
	c, src := newManualClock(t)
	require.True(t, c.Start())
	src.Advance(time.Second)

	c.Reset()
	assert.Equal(t, clock.StatusRunning, c.Status())
	assert.Equal(t, time.Duration(0), c.Time())

	src.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, c.Time())
}

func TestString(t *testing.T) {
	c, src := newManualClock(t, clock.WithFPS(25))
	require.True(t, c.Start())
	src.Advance(2 * time.Second)
	assert.Equal(t, "Clock [current time: 2.000s, fps: 25.00, current_frame: 50]", c.String())

	bare, _ := newManualClock(t)
	assert.Equal(t, "Clock [current time: 0.000s]", bare.String())
}
