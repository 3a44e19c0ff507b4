package player

// Status is the playback state of a Player.
type Status int32

const (
	// StatusUninitialized means no media has been loaded.
	StatusUninitialized Status = iota
	// StatusReady means media is loaded and playback is stopped at 0.
	StatusReady
	// StatusPlaying means the pacing tasks are producing media.
	StatusPlaying
	// StatusPaused means the clock is frozen; tasks stay alive.
	StatusPaused
	// StatusEndOfStream means playback time exceeded the media duration.
	StatusEndOfStream
)

// String returns a human-readable representation of the status
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEndOfStream:
		return "end_of_stream"
	default:
		return "unknown"
	}
}

// Active reports whether the pacing tasks should keep running
func (s Status) Active() bool {
	return s == StatusPlaying || s == StatusPaused
}
