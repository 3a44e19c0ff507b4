package mediasource

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/mo"
)

// AudioFormat describes interleaved signed little-endian PCM
type AudioFormat struct {
	// SampleRate in samples per second per channel (e.g., 44100)
	SampleRate int
	// Channels is the number of interleaved channels (e.g., 2 for stereo)
	Channels int
	// BytesPerSample is the width of one channel sample (2 = 16 bit)
	BytesPerSample int
}

// Bits returns the bit depth of one channel sample
func (f AudioFormat) Bits() int {
	return f.BytesPerSample * 8
}

// FrameBytes returns the size of one sample across all channels
func (f AudioFormat) FrameBytes() int {
	return f.Channels * f.BytesPerSample
}

// SampleIndex returns the index of the sample playing at time t
func (f AudioFormat) SampleIndex(t time.Duration) int64 {
	if t <= 0 {
		return 0
	}
	return int64(math.Floor(float64(f.SampleRate) * t.Seconds()))
}

// SampleTime returns the playback time of sample index i
func (f AudioFormat) SampleTime(i int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(i) / float64(f.SampleRate) * float64(time.Second))
}

// RangeFor returns the sample range covering the time window [from, to)
func (f AudioFormat) RangeFor(from, to time.Duration) SampleRange {
	r := SampleRange{Start: f.SampleIndex(from), End: f.SampleIndex(to)}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}

// Validate checks that the format can describe real PCM
func (f AudioFormat) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BytesPerSample <= 0 {
		return fmt.Errorf("mediasource: invalid audio format %s", f)
	}
	return nil
}

// String returns a human-readable representation (e.g., "44100Hz/2ch/16bit")
func (f AudioFormat) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.Bits())
}

// Info contains stream metadata captured when a source is opened
type Info struct {
	// Path is the file the source was opened from
	Path string
	// Duration is the playable length of the media
	Duration time.Duration
	// FPS is the video frame rate
	FPS float64
	// Width of decoded frames in pixels
	Width int
	// Height of decoded frames in pixels
	Height int
	// Audio is present iff the file has an audio track and audio was requested
	Audio mo.Option[AudioFormat]
}

// Resolution returns the frame size as "WxH"
func (i Info) Resolution() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// VideoFrame is one decoded RGB24 frame
type VideoFrame struct {
	// Index is the frame number (floor(fps × Time))
	Index int64
	// Time is the playback position the frame was pulled for
	Time time.Duration
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Stride is the number of bytes per row (>= Width*3)
	Stride int
	// Data contains packed RGB24 pixels, Height rows of Stride bytes
	Data []byte
}

// Empty reports whether the frame carries no pixels
func (f VideoFrame) Empty() bool {
	return len(f.Data) == 0
}

// SampleRange is a half-open interval [Start, End) of sample indices
type SampleRange struct {
	Start int64
	End   int64
}

// Len returns the number of samples in the range
func (r SampleRange) Len() int64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// AudioChunk is a block of interleaved PCM samples
type AudioChunk struct {
	// Range is the sample interval the chunk was pulled for
	Range SampleRange
	// Format is the sample format established when the source was opened
	Format AudioFormat
	// Data contains interleaved samples; len(Data) may be shorter than the
	// range at end of stream
	Data []byte
}

// SampleCount returns the number of complete samples (across channels) in Data
func (c AudioChunk) SampleCount() int {
	fb := c.Format.FrameBytes()
	if fb == 0 {
		return 0
	}
	return len(c.Data) / fb
}

// Source is an opened media file.
//
// Implementations must guarantee:
//   - FrameAt and SamplesIn are safe to call concurrently with each other
//   - returned buffers are owned by the caller (never reused by the source)
//   - pull failures wrap ErrDecode
type Source interface {
	// Info returns metadata captured at open time.
	Info() Info

	// FrameAt returns the video frame visible at playback time t.
	FrameAt(t time.Duration) (VideoFrame, error)

	// SamplesIn returns the PCM samples for r. Fails with ErrDecode if the
	// source has no audio.
	SamplesIn(r SampleRange) (AudioChunk, error)

	// Close releases decoder resources. Safe to call multiple times.
	Close() error
}

// Opener opens media files.
type Opener interface {
	// Open opens path. withAudio=false skips the audio stream entirely, in
	// which case Info().Audio is absent.
	//
	// Returns an error wrapping ErrNotFound if path does not resolve, or
	// ErrDecode if the file cannot be decoded.
	Open(path string, withAudio bool) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string, withAudio bool) (Source, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string, withAudio bool) (Source, error) {
	return f(path, withAudio)
}

// FrameIndex returns floor(fps × t), the index of the frame visible at t.
func FrameIndex(fps float64, t time.Duration) int64 {
	if fps <= 0 || t <= 0 {
		return 0
	}
	return int64(math.Floor(fps * t.Seconds()))
}
