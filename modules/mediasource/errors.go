package mediasource

import "errors"

var (
	// ErrNotFound is returned when a media path does not resolve to a file.
	ErrNotFound = errors.New("mediasource: media file not found")

	// ErrDecode is returned when a source cannot be opened or a pull fails.
	ErrDecode = errors.New("mediasource: decode failed")
)
