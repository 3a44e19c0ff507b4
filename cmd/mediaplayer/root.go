package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/e7canasta/orion-media-player/internal/config"
	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/mediasource/gst"
	"github.com/e7canasta/orion-media-player/modules/mediasource/synthetic"
)

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// logLevel is shared by every handler installed during a run
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:           "mediaplayer",
	Short:         "Play video files with synchronized audio",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// setup loads the configuration and installs the default logger
func setup(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(afero.NewOsFs(), path)
	if err != nil {
		return nil, err
	}

	logLevel.Set(cfg.SlogLevel())
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(newHandler(os.Stderr, cfg.LogFormat, logLevel)))

	slog.Debug("configuration loaded",
		"config", path,
		"video", cfg.Video.Backend,
		"audio", cfg.Audio.Backend,
		"until", cfg.Playback.Until,
	)
	return cfg, nil
}

func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// newOpener routes test-pattern descriptors to the synthetic source and
// everything else to GStreamer
func newOpener(fsys afero.Fs) mediasource.Opener {
	return mediasource.NewRouter(gst.NewOpener(fsys),
		mediasource.Route{Suffix: synthetic.DescriptorSuffix, Opener: synthetic.NewOpener(fsys)},
	)
}
