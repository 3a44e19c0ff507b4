package player

import "errors"

// ErrInvalidState is returned when an operation is not allowed in the
// current status (e.g., Play before Load).
var ErrInvalidState = errors.New("player: invalid state")
