package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/internal/config"
	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink/surface"
)

func TestNewOpenerRoutesDescriptors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/clips/bars.testsrc.yaml", []byte("duration_s: 2\nfps: 30\n"), 0o644))

	src, err := newOpener(fsys).Open("/clips/bars.testsrc.yaml", true)
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, 30.0, info.FPS)
	assert.True(t, info.Audio.IsAbsent())

	// Missing files never reach a decoder
	_, err = newOpener(fsys).Open("/clips/missing.mp4", true)
	require.ErrorIs(t, err, mediasource.ErrNotFound)
}

func TestApplyFlags(t *testing.T) {
	cfg, err := config.Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	require.NoError(t, playCmd.Flags().Set("until", "keypress"))
	require.NoError(t, playCmd.Flags().Set("video", "surface"))
	require.NoError(t, playCmd.Flags().Set("no-audio", "true"))
	t.Cleanup(func() {
		playCmd.Flags().Set("until", "")
		playCmd.Flags().Set("video", "")
		playCmd.Flags().Set("no-audio", "false")
	})

	require.NoError(t, applyFlags(playCmd, cfg))
	assert.Equal(t, "keypress", cfg.Playback.Until)
	assert.True(t, cfg.Playback.NoAudio)

	_, isSurface := newVideoSink(cfg, 25).(*surface.Surface)
	assert.True(t, isSurface)
	assert.Nil(t, newAudioSink(cfg), "no audio output when audio is disabled")

	require.NoError(t, playCmd.Flags().Set("audio", "alsa"))
	t.Cleanup(func() { playCmd.Flags().Set("audio", "") })
	require.Error(t, applyFlags(playCmd, cfg))
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "json", slog.LevelInfo)).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger := slog.New(newHandler(&buf, "text", slog.LevelWarn))
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
