// Package speaker is an AudioSink that plays PCM chunks through the
// system audio device using gopxl/beep.
//
// Chunks are decoded to float samples and queued; the device pulls from the
// queue at its own pace and plays silence when the queue runs dry.
package speaker

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	beepspeaker "github.com/gopxl/beep/v2/speaker"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink"
)

const (
	// DefaultBufferDuration is the device buffer size
	DefaultBufferDuration = 50 * time.Millisecond
	// DefaultMaxQueued bounds the audio queued ahead of the device
	DefaultMaxQueued = time.Second
)

// Output is the audio device the sink streams into
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Close()
}

// Device is the system speaker.
type Device struct{}

// Init implements Output.
func (Device) Init(rate beep.SampleRate, bufferSize int) error {
	return beepspeaker.Init(rate, bufferSize)
}

// Play implements Output.
func (Device) Play(s beep.Streamer) { beepspeaker.Play(s) }

// Close implements Output.
func (Device) Close() {
	beepspeaker.Clear()
	beepspeaker.Close()
}

// Stats is a snapshot of sink counters
type Stats struct {
	ChunksWritten  uint64
	SamplesQueued  uint64
	SamplesPlayed  uint64
	SilencePadded  uint64 // samples of silence played because the queue was empty
	SamplesDropped uint64 // oldest samples discarded when the queue was full
}

// Sink implements sink.AudioSink.
type Sink struct {
	output    Output
	bufferDur time.Duration
	maxQueued time.Duration

	format mediasource.AudioFormat
	queue  *queue
	open   bool
	mu     sync.Mutex

	chunks uint64
}

// Option configures a Sink
type Option func(*Sink)

// WithOutput replaces the system speaker (e.g., with a capture in tests)
func WithOutput(o Output) Option {
	return func(s *Sink) { s.output = o }
}

// WithBufferDuration sets the device buffer size
func WithBufferDuration(d time.Duration) Option {
	return func(s *Sink) { s.bufferDur = d }
}

// WithMaxQueued bounds how much audio may wait for the device
func WithMaxQueued(d time.Duration) Option {
	return func(s *Sink) { s.maxQueued = d }
}

// New creates a closed sink
func New(opts ...Option) *Sink {
	s := &Sink{
		output:    Device{},
		bufferDur: DefaultBufferDuration,
		maxQueued: DefaultMaxQueued,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open implements sink.AudioSink.
func (s *Sink) Open(format mediasource.AudioFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return fmt.Errorf("speaker: already open")
	}
	if err := format.Validate(); err != nil {
		return fmt.Errorf("speaker: %w", err)
	}
	if format.BytesPerSample != 1 && format.BytesPerSample != 2 {
		return fmt.Errorf("speaker: unsupported sample width %d bytes", format.BytesPerSample)
	}

	rate := beep.SampleRate(format.SampleRate)
	if err := s.output.Init(rate, rate.N(s.bufferDur)); err != nil {
		return fmt.Errorf("speaker: init device: %w", err)
	}

	s.format = format
	s.queue = newQueue(rate.N(s.maxQueued))
	s.open = true
	s.output.Play(s.queue)

	slog.Info("speaker: opened", "format", format.String(), "buffer", s.bufferDur)
	return nil
}

// Write implements sink.AudioSink.
func (s *Sink) Write(chunk mediasource.AudioChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return fmt.Errorf("speaker: write: %w", sink.ErrClosed)
	}
	if chunk.Format != s.format {
		return fmt.Errorf("speaker: chunk format %s does not match %s", chunk.Format, s.format)
	}

	s.queue.push(Decode(chunk))
	s.chunks++
	return nil
}

// Close implements sink.AudioSink. Queued audio is discarded.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	s.queue.close()
	s.output.Close()

	st := s.queue.stats()
	slog.Info("speaker: closed",
		"chunks", s.chunks,
		"samples_played", st.SamplesPlayed,
		"silence_padded", st.SilencePadded,
		"samples_dropped", st.SamplesDropped,
	)
	return nil
}

// Stats returns a snapshot of the sink counters
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return Stats{}
	}
	st := s.queue.stats()
	st.ChunksWritten = s.chunks
	return st
}

// Decode converts interleaved PCM to stereo float samples in [-1, 1].
// Mono is duplicated to both channels; channels beyond the second are
// ignored.
func Decode(chunk mediasource.AudioChunk) [][2]float64 {
	f := chunk.Format
	fb := f.FrameBytes()
	if fb == 0 {
		return nil
	}

	n := len(chunk.Data) / fb
	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		frame := chunk.Data[i*fb : (i+1)*fb]
		left := sampleAt(frame, 0, f.BytesPerSample)
		right := left
		if f.Channels > 1 {
			right = sampleAt(frame, 1, f.BytesPerSample)
		}
		out[i] = [2]float64{left, right}
	}
	return out
}

func sampleAt(frame []byte, ch, width int) float64 {
	b := frame[ch*width:]
	switch width {
	case 1:
		// 8-bit PCM is unsigned
		return (float64(b[0]) - 128) / 128
	default:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	}
}

var _ sink.AudioSink = (*Sink)(nil)
