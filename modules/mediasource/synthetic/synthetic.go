// Package synthetic provides a deterministic test-pattern media source.
//
// Frames are SMPTE colour bars that scroll one bar-width every second of
// playback, so consecutive frames differ and the frame index is visible
// on screen. Audio, if described, is a continuous sine tone.
package synthetic

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/samber/mo"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// SMPTE colour bars (75% intensity)
var bars = [7][3]uint8{
	{192, 192, 192}, // Gray
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
}

const toneAmplitude = 0.5

// Source is a mediasource.Source that renders frames and samples on demand.
// It holds no decoder state, so FrameAt and SamplesIn never contend.
type Source struct {
	desc   Descriptor
	path   string
	closed atomic.Bool
}

// New creates a source from an in-memory descriptor
func New(desc Descriptor) (*Source, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("synthetic: %w: %v", mediasource.ErrDecode, err)
	}
	return &Source{desc: desc, path: "synthetic://testsrc"}, nil
}

// Info implements mediasource.Source.
func (s *Source) Info() mediasource.Info {
	info := mediasource.Info{
		Path:     s.path,
		Duration: s.desc.Duration(),
		FPS:      s.desc.FPS,
		Width:    s.desc.Width,
		Height:   s.desc.Height,
		Audio:    mo.None[mediasource.AudioFormat](),
	}
	if s.desc.Audio != nil {
		info.Audio = mo.Some(s.desc.Audio.Format())
	}
	return info
}

// FrameAt implements mediasource.Source.
func (s *Source) FrameAt(t time.Duration) (mediasource.VideoFrame, error) {
	if s.closed.Load() {
		return mediasource.VideoFrame{}, fmt.Errorf("synthetic: frame at %v: %w: source closed", t, mediasource.ErrDecode)
	}
	if t > s.desc.Duration() {
		t = s.desc.Duration()
	}

	idx := mediasource.FrameIndex(s.desc.FPS, t)
	w, h := s.desc.Width, s.desc.Height
	stride := w * 3
	data := make([]byte, stride*h)

	barWidth := w / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}
	// Scroll one bar per second of playback
	shift := int(idx) * barWidth / int(math.Max(1, math.Round(s.desc.FPS)))

	for y := 0; y < h; y++ {
		row := data[y*stride : (y+1)*stride]
		for x := 0; x < w; x++ {
			c := bars[((x+shift)/barWidth)%len(bars)]
			copy(row[x*3:x*3+3], c[:])
		}
	}
	drawIndex(data, stride, w, h, idx)

	return mediasource.VideoFrame{
		Index:  idx,
		Time:   t,
		Width:  w,
		Height: h,
		Stride: stride,
		Data:   data,
	}, nil
}

// drawIndex writes the frame index as a row of black/white cells along the
// bottom edge (LSB first) so captures can be checked visually.
func drawIndex(data []byte, stride, w, h int, idx int64) {
	const cells = 16
	cell := w / cells
	if cell == 0 || h < 4 {
		return
	}
	for bit := 0; bit < cells; bit++ {
		var v byte
		if idx&(1<<bit) != 0 {
			v = 255
		}
		for y := h - 4; y < h; y++ {
			for x := bit * cell; x < (bit+1)*cell; x++ {
				off := y*stride + x*3
				data[off], data[off+1], data[off+2] = v, v, v
			}
		}
	}
}

// SamplesIn implements mediasource.Source.
func (s *Source) SamplesIn(r mediasource.SampleRange) (mediasource.AudioChunk, error) {
	if s.closed.Load() {
		return mediasource.AudioChunk{}, fmt.Errorf("synthetic: samples %d-%d: %w: source closed", r.Start, r.End, mediasource.ErrDecode)
	}
	if s.desc.Audio == nil {
		return mediasource.AudioChunk{}, fmt.Errorf("synthetic: %w: no audio track", mediasource.ErrDecode)
	}

	format := s.desc.Audio.Format()
	total := format.SampleIndex(s.desc.Duration())
	end := min(r.End, total)
	n := max(end-r.Start, 0)

	data := make([]byte, int(n)*format.FrameBytes())
	step := 2 * math.Pi * s.desc.Audio.ToneHz / float64(format.SampleRate)
	off := 0
	for i := r.Start; i < r.Start+n; i++ {
		v := toneAmplitude * math.Sin(step*float64(i))
		for ch := 0; ch < format.Channels; ch++ {
			off += putSample(data[off:], format.BytesPerSample, v)
		}
	}

	return mediasource.AudioChunk{Range: r, Format: format, Data: data}, nil
}

// putSample encodes v in [-1, 1] and returns the bytes written
func putSample(dst []byte, width int, v float64) int {
	switch width {
	case 1:
		// 8-bit PCM is unsigned
		dst[0] = uint8(int(math.Round(v*127)) + 128)
		return 1
	default:
		binary.LittleEndian.PutUint16(dst, uint16(int16(math.Round(v*math.MaxInt16))))
		return 2
	}
}

// Close implements mediasource.Source.
func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}
