package surface_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink"
	"github.com/e7canasta/orion-media-player/modules/sink/surface"
)

func solidFrame(idx int64, w, h int, c [3]byte) mediasource.VideoFrame {
	data := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		copy(data[i*3:], c[:])
	}
	return mediasource.VideoFrame{Index: idx, Width: w, Height: h, Stride: w * 3, Data: data}
}

func TestLetterboxing(t *testing.T) {
	gray := color.RGBA{R: 64, G: 64, B: 64, A: 255}
	s := surface.New(surface.WithBackground(gray))

	// 4:1 frame on a 4:3 screen: letterboxed at full width
	g, err := sink.NewGeometry(image.Pt(40, 30), image.Pt(8, 2), true)
	require.NoError(t, err)
	require.NoError(t, s.Prepare(g))
	assert.Equal(t, image.Rect(0, 10, 40, 20), g.Dest)

	require.NoError(t, s.PushFrame(solidFrame(0, 8, 2, [3]byte{255, 0, 0})))

	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, gray, snap.RGBAAt(20, 2), "bar above the picture keeps the background")
	assert.Equal(t, gray, snap.RGBAAt(20, 27), "bar below the picture keeps the background")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, snap.RGBAAt(20, 15))
}

func TestNativeSizeCentred(t *testing.T) {
	s := surface.New()
	g, err := sink.NewGeometry(image.Pt(10, 10), image.Pt(2, 2), false)
	require.NoError(t, err)
	require.NoError(t, s.Prepare(g))

	require.NoError(t, s.PushFrame(solidFrame(0, 2, 2, [3]byte{0, 0, 255})))
	snap := s.Snapshot()
	assert.Equal(t, color.RGBA{B: 255, A: 255}, snap.RGBAAt(4, 4))
	assert.Equal(t, color.RGBA{A: 255}, snap.RGBAAt(0, 0))
}

func TestSkipsSameFrame(t *testing.T) {
	s := surface.New()
	g, err := sink.NewGeometry(image.Pt(4, 4), image.Pt(4, 4), true)
	require.NoError(t, err)
	require.NoError(t, s.Prepare(g))

	f := solidFrame(3, 4, 4, [3]byte{1, 2, 3})
	require.NoError(t, s.PushFrame(f))
	require.NoError(t, s.PushFrame(f))
	require.NoError(t, s.PushFrame(solidFrame(4, 4, 4, [3]byte{1, 2, 3})))

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.FramesDrawn)
	assert.Equal(t, uint64(1), stats.FramesSkipped)
	assert.Equal(t, int64(4), stats.LastIndex)
}

func TestPaddedStride(t *testing.T) {
	s := surface.New()
	g, err := sink.NewGeometry(image.Pt(2, 2), image.Pt(2, 2), false)
	require.NoError(t, err)
	require.NoError(t, s.Prepare(g))

	// 2px RGB rows padded to 8 bytes
	f := mediasource.VideoFrame{
		Index: 0, Width: 2, Height: 2, Stride: 8,
		Data: []byte{
			10, 0, 0, 20, 0, 0, 0xEE, 0xEE,
			30, 0, 0, 40, 0, 0, 0xEE, 0xEE,
		},
	}
	require.NoError(t, s.PushFrame(f))
	snap := s.Snapshot()
	assert.Equal(t, uint8(30), snap.RGBAAt(0, 1).R)
	assert.Equal(t, uint8(40), snap.RGBAAt(1, 1).R)
}

func TestErrors(t *testing.T) {
	s := surface.New()
	err := s.PushFrame(solidFrame(0, 2, 2, [3]byte{}))
	require.ErrorIs(t, err, sink.ErrClosed, "push before prepare")

	g, _ := sink.NewGeometry(image.Pt(4, 4), image.Pt(2, 2), true)
	require.NoError(t, s.Prepare(g))
	require.Error(t, s.PushFrame(solidFrame(0, 3, 3, [3]byte{})), "size mismatch")

	require.NoError(t, s.Finish())
	require.ErrorIs(t, s.PushFrame(solidFrame(1, 2, 2, [3]byte{})), sink.ErrClosed)
}
