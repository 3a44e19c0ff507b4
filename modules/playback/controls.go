package playback

import (
	"time"

	"github.com/e7canasta/orion-media-player/modules/player"
)

// Controls is the playback surface exposed to an EventHandler
type Controls struct {
	d *Driver
}

// Pause toggles pause
func (c *Controls) Pause() {
	c.d.player.Pause()
}

// Paused reports whether playback is paused
func (c *Controls) Paused() bool {
	return c.d.player.Status() == player.StatusPaused
}

// FrameIndex returns the index of the frame currently shown
func (c *Controls) FrameIndex() int64 {
	idx, err := c.d.player.CurrentFrameIndex()
	if err != nil {
		return 0
	}
	return idx
}

// Time returns the playback position
func (c *Controls) Time() time.Duration {
	return c.d.player.CurrentTime()
}

// TimesPlayed counts passes started, including the current one
func (c *Controls) TimesPlayed() int {
	return c.d.timesPlayed
}
