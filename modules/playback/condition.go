package playback

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type stopKind int

const (
	stopAtEnd stopKind = iota
	stopOnKeypress
	stopOnMouseClick
	stopAfter
)

// StopCondition decides when a run ends besides end of stream.
type StopCondition struct {
	kind  stopKind
	limit time.Duration
}

var (
	// UntilEnd plays until the media ends (never, when looping)
	UntilEnd = StopCondition{kind: stopAtEnd}
	// Keypress ends playback at the first key press and records it as the response
	Keypress = StopCondition{kind: stopOnKeypress}
	// MouseClick ends playback at the first mouse click and records it as the response
	MouseClick = StopCondition{kind: stopOnMouseClick}
)

// After ends playback once d of wall time has passed.
func After(d time.Duration) StopCondition {
	return StopCondition{kind: stopAfter, limit: d}
}

// Limit returns the time limit, or 0 if the condition has none
func (c StopCondition) Limit() time.Duration {
	if c.kind != stopAfter {
		return 0
	}
	return c.limit
}

// String returns the form accepted by ParseStopCondition
func (c StopCondition) String() string {
	switch c.kind {
	case stopOnKeypress:
		return "keypress"
	case stopOnMouseClick:
		return "mouseclick"
	case stopAfter:
		return c.limit.String()
	default:
		return "end"
	}
}

// ParseStopCondition accepts "end" (or empty), "keypress", "mouseclick", a
// Go duration ("1m30s") or a whole number of seconds ("5").
func ParseStopCondition(s string) (StopCondition, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "end":
		return UntilEnd, nil
	case "keypress":
		return Keypress, nil
	case "mouseclick":
		return MouseClick, nil
	}

	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return StopCondition{}, fmt.Errorf("playback: stop condition %q: duration must be positive", s)
		}
		return After(time.Duration(secs) * time.Second), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return StopCondition{}, fmt.Errorf("playback: invalid stop condition %q", s)
	}
	if d <= 0 {
		return StopCondition{}, fmt.Errorf("playback: stop condition %q: duration must be positive", s)
	}
	return After(d), nil
}
