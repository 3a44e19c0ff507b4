package playback

import "errors"

var (
	// ErrAborted is returned when the escape key ends playback
	ErrAborted = errors.New("playback: aborted by escape key")

	// ErrEventHandler wraps an error returned by the event handler
	ErrEventHandler = errors.New("playback: event handler failed")

	// ErrRunning is returned when Run is called on a driver that is already running
	ErrRunning = errors.New("playback: already running")
)
