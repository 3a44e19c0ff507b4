package playback

import (
	"time"

	"github.com/e7canasta/orion-media-player/modules/playback/internal/pacing"
)

// PacingStats summarises how regularly frames reached the video sink
type PacingStats = pacing.Stats

// EndReason tells why a run ended
type EndReason int

const (
	EndOfMedia EndReason = iota
	EndStopCondition
	EndTimeLimit
	EndHandler
	EndCanceled
	EndAborted
	EndFailed
)

// String returns a human-readable representation of the reason
func (r EndReason) String() string {
	switch r {
	case EndOfMedia:
		return "end_of_media"
	case EndStopCondition:
		return "stop_condition"
	case EndTimeLimit:
		return "time_limit"
	case EndHandler:
		return "handler"
	case EndCanceled:
		return "canceled"
	case EndAborted:
		return "aborted"
	case EndFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished run
type Result struct {
	Reason EndReason

	// Response is the key name or "mouseN" that ended a keypress/mouseclick run
	Response string
	// ResponseTime is measured from the start of playback
	ResponseTime time.Duration

	// TimesPlayed counts passes started, including the first
	TimesPlayed int
	// FramesShown counts frames pushed to the video sink
	FramesShown int
	// FramesMissed counts frames produced but replaced before they were shown
	FramesMissed uint64

	Elapsed time.Duration
	Pacing  PacingStats
}
