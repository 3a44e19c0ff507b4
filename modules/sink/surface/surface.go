// Package surface is a software VideoSink that blits frames into an
// in-memory RGBA screen.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink"
)

// Stats is a snapshot of surface counters
type Stats struct {
	FramesDrawn   uint64
	FramesSkipped uint64 // same index as the frame already on screen
	LastIndex     int64
}

// Surface implements sink.VideoSink on an *image.RGBA.
type Surface struct {
	background color.Color
	scaler     draw.Scaler

	mu       sync.Mutex
	geometry sink.Geometry
	screen   *image.RGBA
	frame    *image.RGBA // frame-sized conversion buffer, reused
	prepared bool

	drawn     uint64
	skipped   uint64
	lastIndex int64
}

// Option configures a Surface
type Option func(*Surface)

// WithBackground sets the colour the screen is cleared to (default: black)
func WithBackground(c color.Color) Option {
	return func(s *Surface) { s.background = c }
}

// WithScaler sets the interpolator used when resizing (default: bilinear)
func WithScaler(sc draw.Scaler) Option {
	return func(s *Surface) { s.scaler = sc }
}

// New creates an unprepared surface
func New(opts ...Option) *Surface {
	s := &Surface{
		background: color.Black,
		scaler:     draw.ApproxBiLinear,
		lastIndex:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare implements sink.VideoSink: allocates the screen and clears it.
func (s *Surface) Prepare(g sink.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.geometry = g
	s.screen = image.NewRGBA(image.Rectangle{Max: g.Screen})
	s.frame = image.NewRGBA(image.Rectangle{Max: g.Frame})
	draw.Draw(s.screen, s.screen.Bounds(), image.NewUniform(s.background), image.Point{}, draw.Src)
	s.prepared = true
	s.lastIndex = -1

	slog.Debug("surface: prepared",
		"screen", g.Screen,
		"dest", g.Dest,
		"resize", g.Resize,
	)
	return nil
}

// PushFrame implements sink.VideoSink. A frame with the index already on
// screen is skipped.
func (s *Surface) PushFrame(f mediasource.VideoFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.prepared {
		return fmt.Errorf("surface: push frame %d: %w", f.Index, sink.ErrClosed)
	}
	if f.Index == s.lastIndex {
		s.skipped++
		return nil
	}
	if f.Width != s.geometry.Frame.X || f.Height != s.geometry.Frame.Y {
		return fmt.Errorf("surface: frame %d is %dx%d, prepared for %v", f.Index, f.Width, f.Height, s.geometry.Frame)
	}

	if err := rgbToRGBA(s.frame, f); err != nil {
		return fmt.Errorf("surface: frame %d: %w", f.Index, err)
	}

	if s.geometry.Resize {
		s.scaler.Scale(s.screen, s.geometry.Dest, s.frame, s.frame.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(s.screen, s.geometry.Dest, s.frame, image.Point{}, draw.Src)
	}

	s.drawn++
	s.lastIndex = f.Index
	return nil
}

// rgbToRGBA expands packed RGB24 rows into dst
func rgbToRGBA(dst *image.RGBA, f mediasource.VideoFrame) error {
	stride := f.Stride
	if stride == 0 {
		stride = f.Width * 3
	}
	if len(f.Data) < stride*(f.Height-1)+f.Width*3 {
		return fmt.Errorf("short frame buffer: %d bytes", len(f.Data))
	}

	for y := 0; y < f.Height; y++ {
		src := f.Data[y*stride : y*stride+f.Width*3]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			row[x*4+0] = src[x*3+0]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
	return nil
}

// Finish implements sink.VideoSink.
func (s *Surface) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = false
	return nil
}

// Snapshot returns a copy of the screen, or nil before Prepare.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == nil {
		return nil
	}
	out := image.NewRGBA(s.screen.Bounds())
	copy(out.Pix, s.screen.Pix)
	return out
}

// Stats returns a snapshot of the surface counters
func (s *Surface) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{FramesDrawn: s.drawn, FramesSkipped: s.skipped, LastIndex: s.lastIndex}
}

var _ sink.VideoSink = (*Surface)(nil)
