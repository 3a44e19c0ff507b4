package sink

import (
	"fmt"
	"image"
)

// Geometry describes where frames are drawn on the display
type Geometry struct {
	// Screen is the display size
	Screen image.Point
	// Frame is the decoded frame size
	Frame image.Point
	// Dest is the rectangle frames are drawn into
	Dest image.Rectangle
	// Resize reports whether frames are scaled to Dest
	Resize bool
}

// NewGeometry centres the frame on the screen, scaled to fit when resize is
// set and at native size otherwise.
func NewGeometry(screen, frame image.Point, resize bool) (Geometry, error) {
	if screen.X <= 0 || screen.Y <= 0 || frame.X <= 0 || frame.Y <= 0 {
		return Geometry{}, fmt.Errorf("sink: invalid geometry screen=%v frame=%v", screen, frame)
	}

	size := frame
	if resize {
		size = FitSize(screen, frame)
	}
	return Geometry{
		Screen: screen,
		Frame:  frame,
		Dest:   Center(screen, size),
		Resize: resize,
	}, nil
}

// FitSize scales frame to the largest size that fits screen while keeping
// its aspect ratio.
func FitSize(screen, frame image.Point) image.Point {
	rs := float64(screen.X) / float64(screen.Y)
	ri := float64(frame.X) / float64(frame.Y)

	if rs > ri {
		// Screen is wider: full height, pillarbox
		return image.Pt(frame.X*screen.Y/frame.Y, screen.Y)
	}
	// Screen is taller (or equal): full width, letterbox
	return image.Pt(screen.X, frame.Y*screen.X/frame.X)
}

// Center returns a rectangle of the given size centred on screen.
func Center(screen, size image.Point) image.Rectangle {
	origin := image.Pt((screen.X-size.X)/2, (screen.Y-size.Y)/2)
	return image.Rectangle{Min: origin, Max: origin.Add(size)}
}
