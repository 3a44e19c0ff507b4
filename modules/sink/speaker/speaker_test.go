package speaker_test

import (
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink"
	"github.com/e7canasta/orion-media-player/modules/sink/speaker"
)

// captureOutput records the streamer instead of opening a device
type captureOutput struct {
	rate       beep.SampleRate
	bufferSize int
	streamer   beep.Streamer
	closed     bool
}

func (c *captureOutput) Init(rate beep.SampleRate, bufferSize int) error {
	c.rate, c.bufferSize = rate, bufferSize
	return nil
}

func (c *captureOutput) Play(s beep.Streamer) { c.streamer = s }
func (c *captureOutput) Close()               { c.closed = true }

var stereo16 = mediasource.AudioFormat{SampleRate: 1000, Channels: 2, BytesPerSample: 2}

func TestDecode(t *testing.T) {
	t.Run("stereo 16-bit", func(t *testing.T) {
		chunk := mediasource.AudioChunk{
			Format: stereo16,
			// L=16384 (0.5) R=-32768 (-1.0)
			Data: []byte{0x00, 0x40, 0x00, 0x80},
		}
		got := speaker.Decode(chunk)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.5, got[0][0], 1e-9)
		assert.InDelta(t, -1.0, got[0][1], 1e-9)
	})

	t.Run("mono 8-bit duplicated", func(t *testing.T) {
		chunk := mediasource.AudioChunk{
			Format: mediasource.AudioFormat{SampleRate: 8000, Channels: 1, BytesPerSample: 1},
			Data:   []byte{128, 192, 0},
		}
		got := speaker.Decode(chunk)
		require.Len(t, got, 3)
		assert.Equal(t, [2]float64{0, 0}, got[0])
		assert.Equal(t, [2]float64{0.5, 0.5}, got[1])
		assert.Equal(t, [2]float64{-1, -1}, got[2])
	})

	t.Run("partial trailing sample ignored", func(t *testing.T) {
		chunk := mediasource.AudioChunk{Format: stereo16, Data: []byte{0, 0, 0, 0, 1}}
		assert.Len(t, speaker.Decode(chunk), 1)
	})
}

func TestWriteAndStream(t *testing.T) {
	out := &captureOutput{}
	s := speaker.New(speaker.WithOutput(out), speaker.WithBufferDuration(10*time.Millisecond))

	require.NoError(t, s.Open(stereo16))
	assert.Equal(t, beep.SampleRate(1000), out.rate)
	assert.Equal(t, 10, out.bufferSize)
	require.NotNil(t, out.streamer)

	require.NoError(t, s.Write(mediasource.AudioChunk{
		Format: stereo16,
		Data:   []byte{0x00, 0x40, 0x00, 0x40, 0x00, 0xC0, 0x00, 0xC0},
	}))

	buf := make([][2]float64, 4)
	n, ok := out.streamer.Stream(buf)
	require.True(t, ok)
	assert.Equal(t, 4, n, "streamer never runs short, it pads with silence")
	assert.InDelta(t, 0.5, buf[0][0], 1e-9)
	assert.InDelta(t, -0.5, buf[1][1], 1e-9)
	assert.Equal(t, [2]float64{}, buf[2])

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.ChunksWritten)
	assert.Equal(t, uint64(2), stats.SamplesPlayed)
	assert.Equal(t, uint64(2), stats.SilencePadded)

	require.NoError(t, s.Close())
	assert.True(t, out.closed)
	_, ok = out.streamer.Stream(buf)
	assert.False(t, ok, "streamer is exhausted after close")

	require.ErrorIs(t, s.Write(mediasource.AudioChunk{Format: stereo16}), sink.ErrClosed)
	require.NoError(t, s.Close(), "close is idempotent")
}

func TestQueueBounded(t *testing.T) {
	out := &captureOutput{}
	s := speaker.New(speaker.WithOutput(out), speaker.WithMaxQueued(2*time.Millisecond))
	require.NoError(t, s.Open(stereo16))

	// 3 samples into a 2-sample queue: the oldest is dropped
	require.NoError(t, s.Write(mediasource.AudioChunk{
		Format: stereo16,
		Data:   []byte{1, 0, 1, 0, 2, 0, 2, 0, 3, 0, 3, 0},
	}))
	assert.Equal(t, uint64(1), s.Stats().SamplesDropped)

	buf := make([][2]float64, 2)
	out.streamer.Stream(buf)
	assert.InDelta(t, 2.0/32768, buf[0][0], 1e-12)
}

func TestOpenErrors(t *testing.T) {
	s := speaker.New(speaker.WithOutput(&captureOutput{}))
	require.Error(t, s.Open(mediasource.AudioFormat{}))
	require.Error(t, s.Open(mediasource.AudioFormat{SampleRate: 44100, Channels: 2, BytesPerSample: 3}))

	require.NoError(t, s.Open(stereo16))
	require.Error(t, s.Open(stereo16), "already open")
	require.Error(t, s.Write(mediasource.AudioChunk{Format: mediasource.AudioFormat{SampleRate: 8000, Channels: 1, BytesPerSample: 2}}))
}
