package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/e7canasta/orion-media-player/internal/config"
	"github.com/e7canasta/orion-media-player/modules/playback"
	"github.com/e7canasta/orion-media-player/modules/player"
	"github.com/e7canasta/orion-media-player/modules/sink"
	"github.com/e7canasta/orion-media-player/modules/sink/ffplay"
	"github.com/e7canasta/orion-media-player/modules/sink/speaker"
	"github.com/e7canasta/orion-media-player/modules/sink/surface"
	"github.com/e7canasta/orion-media-player/modules/sink/terminal"
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("no-audio", false, "Play video only")
	playCmd.Flags().Bool("loop", false, "Replay at end of stream")
	playCmd.Flags().String("until", "", "Stop condition: end, keypress, mouseclick or a duration (e.g., 5s)")
	playCmd.Flags().String("video", "", "Video output: ffplay, surface, none")
	playCmd.Flags().String("audio", "", "Audio output: speaker, none")
}

var playCmd = &cobra.Command{
	Use:   "play <path>",
	Short: "Play a media file",
	Long:  "Play a media file. Press escape (or Ctrl-C) in the terminal to abort.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		return play(cmd.Context(), cfg, args[0])
	},
}

// applyFlags overrides the configuration with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("no-audio") {
		cfg.Playback.NoAudio, _ = flags.GetBool("no-audio")
	}
	if flags.Changed("loop") {
		cfg.Playback.Loop, _ = flags.GetBool("loop")
	}
	if flags.Changed("until") {
		cfg.Playback.Until, _ = flags.GetString("until")
	}
	if flags.Changed("video") {
		cfg.Video.Backend, _ = flags.GetString("video")
	}
	if flags.Changed("audio") {
		cfg.Audio.Backend, _ = flags.GetString("audio")
	}
	return config.Validate(cfg)
}

func play(parent context.Context, cfg *config.Config, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	until, err := playback.ParseStopCondition(cfg.Playback.Until)
	if err != nil {
		return err
	}

	input, raw, closeInput := openInput()
	defer closeInput()
	if raw {
		// The terminal shares stderr and no longer translates newlines
		prev := slog.Default()
		slog.SetDefault(slog.New(newHandler(terminal.NewlineWriter(os.Stderr), cfg.LogFormat, logLevel)))
		defer slog.SetDefault(prev)
	}

	p, err := player.New(newOpener(afero.NewOsFs()),
		player.WithPlayAudio(!cfg.Playback.NoAudio),
		player.WithPollInterval(cfg.Playback.PollInterval),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Load(path); err != nil {
		return err
	}
	info := p.Info()
	slog.Info("media loaded",
		"path", path,
		"duration", info.Duration,
		"fps", info.FPS,
		"resolution", info.Resolution(),
	)

	opts := []playback.Option{
		playback.WithStopCondition(until),
		playback.WithLoop(cfg.Playback.Loop),
		playback.WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	if cfg.Video.Width > 0 {
		opts = append(opts, playback.WithScreen(image.Pt(cfg.Video.Width, cfg.Video.Height), cfg.Video.Resize))
	}

	d, err := playback.New(p, newVideoSink(cfg, info.FPS), input, newAudioSink(cfg), opts...)
	if err != nil {
		return err
	}

	res, err := d.Run(ctx)
	slog.Info("playback result",
		"reason", res.Reason.String(),
		"response", res.Response,
		"response_time", res.ResponseTime,
		"times_played", res.TimesPlayed,
		"frames_shown", res.FramesShown,
		"frames_skipped", res.Pacing.FramesSkipped,
		"jitter_mean", res.Pacing.JitterMean,
	)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("playback: %s: %w", path, err)
	}
	return nil
}

func newVideoSink(cfg *config.Config, fps float64) sink.VideoSink {
	switch cfg.Video.Backend {
	case "ffplay":
		bin := cfg.Video.FFplayPath
		return ffplay.New(
			ffplay.WithCommand(func(args ...string) *exec.Cmd { return exec.Command(bin, args...) }),
			ffplay.WithTitle(cfg.Video.Title),
			ffplay.WithFPS(fps),
		)
	case "surface":
		return surface.New()
	default:
		return nil
	}
}

func newAudioSink(cfg *config.Config) sink.AudioSink {
	if cfg.Audio.Backend != "speaker" || cfg.Playback.NoAudio {
		return nil
	}
	return speaker.New(speaker.WithBufferDuration(cfg.Audio.Buffer))
}

// openInput reads keys from the controlling terminal, if there is one.
// raw reports that the terminal was switched to raw mode.
func openInput() (input sink.InputSource, raw bool, closeInput func()) {
	in, err := terminal.Open(os.Stdin)
	if err != nil {
		slog.Warn("keyboard input unavailable", "error", err)
		return sink.NoInput{}, false, func() {}
	}
	return in, in.Raw(), func() {
		if err := in.Close(); err != nil {
			slog.Warn("failed to restore terminal", "error", err)
		}
	}
}
