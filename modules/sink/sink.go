// Package sink defines the capability interfaces the playback driver
// composes: a VideoSink that shows frames, an AudioSink that plays PCM and
// an InputSource that reports key and mouse events.
//
// Each backend implements only the capabilities it has; there is no common
// base type.
package sink

import (
	"errors"
	"strconv"
	"time"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// ErrClosed is returned when writing to a sink that has been finished/closed
var ErrClosed = errors.New("sink: closed")

// VideoSink displays decoded frames.
//
// PushFrame is called from the driver's goroutine only; implementations
// need not be safe for concurrent use.
type VideoSink interface {
	// Prepare readies the display for frames of the given geometry.
	Prepare(g Geometry) error
	// PushFrame draws f. The frame's buffer may be retained.
	PushFrame(f mediasource.VideoFrame) error
	// Finish releases the display. Safe to call multiple times.
	Finish() error
}

// AudioSink plays interleaved PCM.
//
// Write is called from the player's audio goroutine; Close is called only
// after that goroutine has exited.
type AudioSink interface {
	Open(format mediasource.AudioFormat) error
	Write(chunk mediasource.AudioChunk) error
	Close() error
}

// InputSource reports user input without blocking.
type InputSource interface {
	// Poll returns the next pending event, or ok=false if none is pending.
	Poll() (ev Event, ok bool)
}

// EventKind distinguishes input events
type EventKind int

const (
	// EventKey is a key press; Event.Key holds the key name
	EventKey EventKind = iota
	// EventMouse is a mouse button press; Event.Button holds the button
	EventMouse
	// EventFrame carries no input; it is handed to per-frame handlers when
	// nothing is pending
	EventFrame
)

// String returns a human-readable representation of the kind
func (k EventKind) String() string {
	switch k {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// KeyEscape is the key name that aborts playback
const KeyEscape = "escape"

// Event is one user input
type Event struct {
	Kind   EventKind
	Key    string // key name for EventKey (e.g., "space", "a", "escape")
	Button int    // 1-based button for EventMouse
	At     time.Time
}

// IsEscape reports whether ev is an escape key press
func (ev Event) IsEscape() bool {
	return ev.Kind == EventKey && ev.Key == KeyEscape
}

// Response returns the value recorded as the participant's response
func (ev Event) Response() string {
	if ev.Kind == EventMouse {
		return "mouse" + strconv.Itoa(ev.Button)
	}
	return ev.Key
}
