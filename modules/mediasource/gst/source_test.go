package gst

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/mediasource/internal/gstreamer"
)

const testFPS = 25.0

var testFormat = mediasource.AudioFormat{SampleRate: 8000, Channels: 1, BytesPerSample: 2}

// fakeStream stands in for a decoding pipeline. Positions are counted in
// units (frames or samples); every Pull returns the next chunk units, each
// encoded with its own position.
type fakeStream struct {
	rate  float64 // units per second, used to map Seek positions
	total int64
	chunk int64
	unit  func(pos int64) []byte

	next   int64
	pulls  int
	seeks  []time.Duration
	closed bool
}

func (f *fakeStream) Pull() (gstreamer.Sample, error) {
	if f.next >= f.total {
		return gstreamer.Sample{}, gstreamer.ErrEOS
	}
	f.pulls++
	end := min(f.next+f.chunk, f.total)
	var data []byte
	for pos := f.next; pos < end; pos++ {
		data = append(data, f.unit(pos)...)
	}
	f.next = end
	return gstreamer.Sample{Data: data}, nil
}

func (f *fakeStream) Seek(pos time.Duration) error {
	f.seeks = append(f.seeks, pos)
	f.next = int64(math.Round(pos.Seconds() * f.rate))
	return nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

// newVideoSource opens a source over a fake video stream of total frames,
// with frame 0 already pulled the way Open does.
func newVideoSource(t *testing.T, total int64) (*Source, *fakeStream) {
	t.Helper()
	fs := &fakeStream{
		rate:  testFPS,
		total: total,
		chunk: 1,
		unit:  func(pos int64) []byte { return []byte{byte(pos)} },
	}
	first, err := fs.Pull()
	require.NoError(t, err)

	s := &Source{
		info:    mediasource.Info{FPS: testFPS, Width: 2, Height: 1, Duration: time.Duration(total) * 40 * time.Millisecond},
		video:   fs,
		pending: mo.Some(first.Data),
	}
	return s, fs
}

// newAudioSource does the same for a mono 16-bit stream of total samples,
// delivered 100 samples per pull.
func newAudioSource(t *testing.T, total int64) (*Source, *fakeStream) {
	t.Helper()
	fs := &fakeStream{
		rate:  float64(testFormat.SampleRate),
		total: total,
		chunk: 100,
		unit: func(pos int64) []byte {
			return binary.LittleEndian.AppendUint16(nil, uint16(pos))
		},
	}
	first, err := fs.Pull()
	require.NoError(t, err)

	s := &Source{
		info:        mediasource.Info{Audio: mo.Some(testFormat)},
		audio:       fs,
		audioFormat: testFormat,
		audioBuf:    first.Data,
	}
	return s, fs
}

// at returns a time strictly inside frame i
func at(i int64) time.Duration {
	return time.Duration(i)*40*time.Millisecond + 10*time.Millisecond
}

func samplesOf(t *testing.T, c mediasource.AudioChunk) []int64 {
	t.Helper()
	require.Zero(t, len(c.Data)%2, "odd chunk length")
	out := make([]int64, 0, len(c.Data)/2)
	for i := 0; i < len(c.Data); i += 2 {
		out = append(out, int64(binary.LittleEndian.Uint16(c.Data[i:])))
	}
	return out
}

func span(from, to int64) []int64 {
	out := make([]int64, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func TestFrameAt(t *testing.T) {
	t.Run("sequential reads use the pre-rolled frame and read ahead", func(t *testing.T) {
		s, fs := newVideoSource(t, 50)

		f, err := s.FrameAt(at(0))
		require.NoError(t, err)
		assert.Equal(t, int64(0), f.Index)
		assert.Equal(t, []byte{0}, f.Data)
		assert.Equal(t, at(0), f.Time)
		assert.Equal(t, 1, fs.pulls, "frame 0 came from the open")

		// Two frames ahead is still decoded in order
		f, err = s.FrameAt(at(2))
		require.NoError(t, err)
		assert.Equal(t, int64(2), f.Index)
		assert.Equal(t, []byte{2}, f.Data)
		assert.Empty(t, fs.seeks)
		assert.Equal(t, 3, fs.pulls)
	})

	t.Run("repeated frame is served without decoding", func(t *testing.T) {
		s, fs := newVideoSource(t, 50)
		_, err := s.FrameAt(at(1))
		require.NoError(t, err)
		pulls := fs.pulls

		f, err := s.FrameAt(at(1) + 5*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(1), f.Index)
		assert.Equal(t, pulls, fs.pulls)

		// Returned buffers belong to the caller
		f.Data[0] = 0xff
		again, err := s.FrameAt(at(1))
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, again.Data)
	})

	t.Run("backward jump seeks", func(t *testing.T) {
		s, fs := newVideoSource(t, 50)
		_, err := s.FrameAt(at(6))
		require.NoError(t, err) // 6 is beyond the read-ahead window
		require.Len(t, fs.seeks, 1)

		f, err := s.FrameAt(at(2))
		require.NoError(t, err)
		assert.Equal(t, int64(2), f.Index)
		assert.Equal(t, []byte{2}, f.Data)
		require.Len(t, fs.seeks, 2)
		assert.InDelta(t, 0.08, fs.seeks[1].Seconds(), 1e-6)
	})

	t.Run("far forward jump seeks instead of decoding every frame", func(t *testing.T) {
		s, fs := newVideoSource(t, 50)
		f, err := s.FrameAt(at(20))
		require.NoError(t, err)
		assert.Equal(t, int64(20), f.Index)
		assert.Equal(t, []byte{20}, f.Data)
		require.Len(t, fs.seeks, 1)
		assert.InDelta(t, 0.8, fs.seeks[0].Seconds(), 1e-6)
		assert.Equal(t, 2, fs.pulls, "open plus the target frame")
	})

	t.Run("end of stream holds the last frame", func(t *testing.T) {
		s, _ := newVideoSource(t, 10)
		for i := int64(0); i < 10; i++ {
			f, err := s.FrameAt(at(i))
			require.NoError(t, err)
			require.Equal(t, i, f.Index)
		}

		f, err := s.FrameAt(at(11))
		require.NoError(t, err)
		assert.Equal(t, int64(9), f.Index)
		assert.Equal(t, []byte{9}, f.Data)
		assert.Equal(t, at(11), f.Time)
	})

	t.Run("closed source", func(t *testing.T) {
		s, fs := newVideoSource(t, 10)
		require.NoError(t, s.Close())
		assert.True(t, fs.closed)

		_, err := s.FrameAt(at(0))
		require.ErrorIs(t, err, mediasource.ErrDecode)
	})
}

// TestSamplesIn walks one buffer through the paths a playing audio task
// hits: extend, overlap, rewind, jump, end of stream.
func TestSamplesIn(t *testing.T) {
	s, fs := newAudioSource(t, 20000)

	// Extend the pre-rolled buffer
	c, err := s.SamplesIn(mediasource.SampleRange{Start: 0, End: 160})
	require.NoError(t, err)
	assert.Equal(t, span(0, 160), samplesOf(t, c))
	assert.Equal(t, testFormat, c.Format)
	assert.Empty(t, fs.seeks)

	// Overlapping window trims what is before it
	c, err = s.SamplesIn(mediasource.SampleRange{Start: 150, End: 310})
	require.NoError(t, err)
	assert.Equal(t, span(150, 310), samplesOf(t, c))
	assert.Empty(t, fs.seeks)
	assert.Equal(t, int64(150), s.audioStart)

	// Behind the buffer: seek back
	c, err = s.SamplesIn(mediasource.SampleRange{Start: 50, End: 100})
	require.NoError(t, err)
	assert.Equal(t, span(50, 100), samplesOf(t, c))
	require.Len(t, fs.seeks, 1)
	assert.Equal(t, testFormat.SampleTime(50), fs.seeks[0])

	// Past the lookahead: seek forward
	c, err = s.SamplesIn(mediasource.SampleRange{Start: 9500, End: 9600})
	require.NoError(t, err)
	assert.Equal(t, span(9500, 9600), samplesOf(t, c))
	require.Len(t, fs.seeks, 2)

	// Short chunk at end of stream keeps the requested range
	r := mediasource.SampleRange{Start: 19950, End: 20100}
	c, err = s.SamplesIn(r)
	require.NoError(t, err)
	assert.Equal(t, r, c.Range)
	assert.Equal(t, 50, c.SampleCount())
	assert.Equal(t, span(19950, 20000), samplesOf(t, c))
	assert.True(t, s.audioEOS)

	// Inside a drained buffer nothing is pulled again
	pulls := fs.pulls
	c, err = s.SamplesIn(mediasource.SampleRange{Start: 19960, End: 19990})
	require.NoError(t, err)
	assert.Equal(t, span(19960, 19990), samplesOf(t, c))
	assert.Equal(t, pulls, fs.pulls)
}

func TestSamplesInWithoutAudio(t *testing.T) {
	s, _ := newVideoSource(t, 10)
	_, err := s.SamplesIn(mediasource.SampleRange{Start: 0, End: 10})
	require.ErrorIs(t, err, mediasource.ErrDecode)
}
