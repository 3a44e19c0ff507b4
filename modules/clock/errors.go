package clock

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when a frame rate or duration limit is out of range.
var ErrConfiguration = errors.New("clock: invalid configuration")

// ErrFPSUnset is returned by frame queries on a clock without a frame rate.
// It wraps ErrConfiguration.
var ErrFPSUnset = fmt.Errorf("%w: fps not set, frame position cannot be calculated", ErrConfiguration)
