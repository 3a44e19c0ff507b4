package synthetic_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/mediasource/synthetic"
)

const tenSecondClip = `
duration_s: 10
fps: 25
width: 64
height: 48
audio:
  sample_rate: 44100
  channels: 2
  bytes_per_sample: 2
`

func writeDescriptor(t *testing.T, fsys afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(body), 0o644))
}

func TestOpenerReadsDescriptor(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDescriptor(t, fsys, "/media/clip.testsrc.yaml", tenSecondClip)

	src, err := synthetic.NewOpener(fsys).Open("/media/clip.testsrc.yaml", true)
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, "/media/clip.testsrc.yaml", info.Path)
	assert.Equal(t, 10*time.Second, info.Duration)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, "64x48", info.Resolution())

	format, ok := info.Audio.Get()
	require.True(t, ok, "audio track expected")
	assert.Equal(t, mediasource.AudioFormat{SampleRate: 44100, Channels: 2, BytesPerSample: 2}, format)
	assert.Equal(t, 16, format.Bits())
}

func TestOpenerWithoutAudio(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDescriptor(t, fsys, "clip.testsrc.yaml", tenSecondClip)

	src, err := synthetic.NewOpener(fsys).Open("clip.testsrc.yaml", false)
	require.NoError(t, err)

	assert.True(t, src.Info().Audio.IsAbsent())
	_, err = src.SamplesIn(mediasource.SampleRange{Start: 0, End: 100})
	require.ErrorIs(t, err, mediasource.ErrDecode)
}

func TestOpenerErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDescriptor(t, fsys, "broken.testsrc.yaml", "duration_s: [not a number")
	writeDescriptor(t, fsys, "zero.testsrc.yaml", "duration_s: 0\nfps: 25\n")
	writeDescriptor(t, fsys, "badwidth.testsrc.yaml", "duration_s: 1\nfps: 25\naudio: {sample_rate: 8000, channels: 1, bytes_per_sample: 3}\n")

	opener := synthetic.NewOpener(fsys)

	testCases := []struct {
		name string
		path string
		want error
	}{
		{"missing file", "nope.testsrc.yaml", mediasource.ErrNotFound},
		{"malformed yaml", "broken.testsrc.yaml", mediasource.ErrDecode},
		{"zero duration", "zero.testsrc.yaml", mediasource.ErrDecode},
		{"unsupported sample width", "badwidth.testsrc.yaml", mediasource.ErrDecode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := opener.Open(tc.path, true)
			require.ErrorIs(t, err, tc.want)
			t.Logf("error: %v", err)
		})
	}
}

func TestFrameAt(t *testing.T) {
	src, err := synthetic.New(synthetic.Descriptor{DurationS: 2, FPS: 25, Width: 70, Height: 10})
	require.NoError(t, err)

	first, err := src.FrameAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Index)
	assert.Equal(t, 70*3, first.Stride)
	assert.Len(t, first.Data, 70*3*10)
	assert.Equal(t, []byte{192, 192, 192}, first.Data[0:3], "first bar is gray")

	later, err := src.FrameAt(time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(25), later.Index)
	assert.NotEqual(t, first.Data, later.Data, "pattern scrolls over time")

	// Requests past the end clamp to the final frame
	end, err := src.FrameAt(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(50), end.Index)

	require.NoError(t, src.Close())
	_, err = src.FrameAt(0)
	require.ErrorIs(t, err, mediasource.ErrDecode)
}

func TestSamplesIn(t *testing.T) {
	src, err := synthetic.New(synthetic.Descriptor{
		DurationS: 1,
		FPS:       25,
		Audio:     &synthetic.AudioDescriptor{SampleRate: 8000, Channels: 2, BytesPerSample: 2},
	})
	require.NoError(t, err)

	format, _ := src.Info().Audio.Get()
	window := format.RangeFor(0, 40*time.Millisecond)
	assert.Equal(t, int64(320), window.Len())

	chunk, err := src.SamplesIn(window)
	require.NoError(t, err)
	assert.Equal(t, 320, chunk.SampleCount())
	assert.Equal(t, []byte{0, 0, 0, 0}, chunk.Data[:4], "sine starts at zero on both channels")

	t.Run("short read at end of stream", func(t *testing.T) {
		chunk, err := src.SamplesIn(mediasource.SampleRange{Start: 7900, End: 8100})
		require.NoError(t, err)
		assert.Equal(t, 100, chunk.SampleCount())
	})

	t.Run("range past end is empty", func(t *testing.T) {
		chunk, err := src.SamplesIn(mediasource.SampleRange{Start: 9000, End: 9100})
		require.NoError(t, err)
		assert.Zero(t, chunk.SampleCount())
	})
}
