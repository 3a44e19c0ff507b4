// Package clock implements the playback stopwatch that paces media production.
//
// A Clock measures elapsed playback time across any number of run/pause
// cycles and, when a frame rate is configured, derives the index of the
// frame that should currently be visible.
//
// # Lifecycle
//
//	c, _ := clock.New(clock.WithFPS(25))   // constructed Paused
//	c.Start()                              // Running, time restarts at 0
//	c.Pause()                              // Paused, time frozen
//	c.Pause()                              // Running again
//	c.Stop()                               // Stopped, history cleared
//
// Start launches a timekeeping goroutine that refreshes the live interval on
// a fine tick (1ms by default) and stops the clock once MaxDuration is
// exceeded. A clock stopped by its duration limit keeps its final time so
// that readers can still observe time > MaxDuration; an explicit Stop resets
// it to zero.
//
// # Time sources
//
// Clocks read wall time through a TimeSource. Production code uses the
// system clock; tests inject clocktest.Source to advance time by hand.
package clock
