// Package playback drives a Player end to end: it shows the frames the
// video task produces, forwards audio to an output, polls input and ends the
// run on a stop condition.
//
// Threading: the Player's pacing goroutines only hand data over (latest
// frame into a single-slot mailbox, audio straight to the AudioSink). All
// drawing, input handling and control calls happen on the goroutine that
// calls Run.
package playback

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/orion-media-player/modules/internal/mailbox"
	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/playback/internal/pacing"
	"github.com/e7canasta/orion-media-player/modules/player"
	"github.com/e7canasta/orion-media-player/modules/sink"
)

// Driver runs a Player against a set of sinks.
type Driver struct {
	player *player.Player
	video  sink.VideoSink // nil: frames are counted, not shown
	input  sink.InputSource
	audio  sink.AudioSink // nil: audio is discarded

	stop            StopCondition
	loop            bool
	handler         EventHandler
	trigger         Trigger
	screen          image.Point
	resize          bool
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	frames    *mailbox.Slot[mediasource.VideoFrame]
	audioOpen atomic.Bool
	running   atomic.Bool
	pacing    *pacing.Recorder

	// Run state, driver goroutine only
	start       time.Time
	timesPlayed int
	framesShown int
	deferred    []sink.Event
	response    string
	responseAt  time.Duration
}

// New creates a driver and installs it as p's video and audio callbacks.
// video, input and audio may be nil.
func New(p *player.Player, video sink.VideoSink, input sink.InputSource, audio sink.AudioSink, opts ...Option) (*Driver, error) {
	if p == nil {
		return nil, fmt.Errorf("playback: nil player")
	}
	if input == nil {
		input = sink.NoInput{}
	}

	d := &Driver{
		player:          p,
		video:           video,
		input:           input,
		audio:           audio,
		stop:            UntilEnd,
		pollInterval:    DefaultPollInterval,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.Default(),
		frames:          mailbox.New[mediasource.VideoFrame](),
		pacing:          pacing.NewRecorder(nil),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if err := p.SetCallbacks(d.Callbacks()); err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	return d, nil
}

// Callbacks returns the functions the Player must call for each frame and
// audio chunk. Both only hand data over and never call back into the Player.
func (d *Driver) Callbacks() (player.VideoFunc, player.AudioFunc) {
	video := func(f mediasource.VideoFrame) error {
		d.frames.Publish(f)
		return nil
	}
	audio := func(c mediasource.AudioChunk) error {
		if d.audio == nil || !d.audioOpen.Load() {
			return nil
		}
		return d.audio.Write(c)
	}
	return video, audio
}

// Run plays the loaded media until it ends, the stop condition fires, the
// escape key is pressed or ctx is done.
//
// On every path the Player is stopped, its tasks are joined (bounded by the
// shutdown timeout), the video sink is finished and only then is the audio
// sink closed.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	if !d.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunning
	}
	defer d.running.Store(false)

	if d.player.Status() == player.StatusUninitialized {
		return Result{}, fmt.Errorf("playback: %w: nothing loaded", player.ErrInvalidState)
	}
	if err := d.prepare(d.player.Info()); err != nil {
		return Result{}, err
	}

	d.timesPlayed = 0
	d.framesShown = 0
	d.deferred = d.deferred[:0]
	d.response, d.responseAt = "", 0
	d.frames.TryConsume()
	missedBefore := d.frames.Stats().Drops

	d.start = time.Now()
	d.pacing.Begin()

	var (
		reason EndReason
		runErr error
	)
	if err := d.play(); err != nil {
		reason, runErr = EndFailed, err
	} else {
		reason, runErr = d.runLoop(ctx)
	}
	shutdownErr := d.shutdown()

	res := Result{
		Reason:       reason,
		Response:     d.response,
		ResponseTime: d.responseAt,
		TimesPlayed:  d.timesPlayed,
		FramesShown:  d.framesShown,
		FramesMissed: d.frames.Stats().Drops - missedBefore,
		Elapsed:      time.Since(d.start),
		Pacing:       d.pacing.Stats(),
	}

	d.logger.Info("playback: finished",
		"reason", reason.String(),
		"times_played", res.TimesPlayed,
		"frames_shown", res.FramesShown,
		"frames_missed", res.FramesMissed,
		"fps_mean", res.Pacing.FPSMean,
		"stable", res.Pacing.Stable,
		"elapsed", res.Elapsed,
	)

	if runErr != nil {
		return res, runErr
	}
	return res, shutdownErr
}

func (d *Driver) prepare(info mediasource.Info) error {
	if d.video != nil {
		frame := image.Pt(info.Width, info.Height)
		screen := d.screen
		if screen == (image.Point{}) {
			screen = frame
		}
		g, err := sink.NewGeometry(screen, frame, d.resize)
		if err != nil {
			return fmt.Errorf("playback: %w", err)
		}
		if err := d.video.Prepare(g); err != nil {
			return fmt.Errorf("playback: prepare video: %w", err)
		}
	}

	if format, ok := d.player.AudioFormat().Get(); ok && d.audio != nil {
		if err := d.audio.Open(format); err != nil {
			if d.video != nil {
				d.video.Finish()
			}
			return fmt.Errorf("playback: open audio: %w", err)
		}
		d.audioOpen.Store(true)
	}
	return nil
}

// play starts a pass from the beginning
func (d *Driver) play() error {
	if d.player.Status() == player.StatusEndOfStream {
		d.player.Stop()
	}
	if err := d.player.Play(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	d.timesPlayed++
	return nil
}

func (d *Driver) runLoop(ctx context.Context) (EndReason, error) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	limit := d.stop.Limit()
	for {
		// Read status before draining so the last frame of a pass is shown
		st := d.player.Status()

		shown, err := d.present()
		if err != nil {
			return EndFailed, err
		}

		switch {
		case st == player.StatusEndOfStream:
			if !d.loop {
				return EndOfMedia, nil
			}
			d.logger.Info("playback: looping", "times_played", d.timesPlayed)
			if err := d.play(); err != nil {
				return EndFailed, err
			}
		case !st.Active():
			if err := d.player.Err(); err != nil {
				return EndFailed, fmt.Errorf("playback: %w", err)
			}
			// Stopped from outside the driver
			return EndCanceled, nil
		}

		if reason, done, err := d.processInput(shown); done {
			return reason, err
		}

		if limit > 0 && time.Since(d.start) > limit {
			return EndTimeLimit, nil
		}

		select {
		case <-ctx.Done():
			return EndCanceled, ctx.Err()
		case <-ticker.C:
		}
	}
}

// present shows the latest produced frame, if it has not been shown yet
func (d *Driver) present() (bool, error) {
	f, ok := d.frames.TryConsume()
	if !ok {
		return false, nil
	}
	if d.video != nil {
		if err := d.video.PushFrame(f); err != nil {
			return false, fmt.Errorf("playback: show frame %d: %w", f.Index, err)
		}
	}
	d.pacing.Shown(f.Index)
	d.framesShown++
	return true, nil
}

// processInput drains pending input. done reports that the run must end.
func (d *Driver) processInput(shown bool) (reason EndReason, done bool, err error) {
	for {
		ev, ok := d.input.Poll()
		if !ok {
			break
		}
		if ev.IsEscape() {
			d.logger.Info("playback: escape pressed")
			return EndAborted, true, ErrAborted
		}

		if d.handler != nil {
			if d.trigger == TriggerEveryFrame {
				d.deferred = append(d.deferred, ev)
				continue
			}
			if reason, done, err := d.callHandler(ev); done {
				return reason, done, err
			}
			continue
		}

		if (d.stop.kind == stopOnKeypress && ev.Kind == sink.EventKey) ||
			(d.stop.kind == stopOnMouseClick && ev.Kind == sink.EventMouse) {
			d.respond(ev)
			return EndStopCondition, true, nil
		}
	}

	if d.handler == nil || d.trigger != TriggerEveryFrame || !shown {
		return 0, false, nil
	}

	events := d.deferred
	if len(events) == 0 {
		events = []sink.Event{{Kind: sink.EventFrame, At: time.Now()}}
	}
	d.deferred = d.deferred[:0]
	for _, ev := range events {
		if reason, done, err := d.callHandler(ev); done {
			return reason, done, err
		}
	}
	return 0, false, nil
}

func (d *Driver) callHandler(ev sink.Event) (EndReason, bool, error) {
	cont, err := d.handler(ev, &Controls{d: d})
	if err != nil {
		d.logger.Error("playback: event handler failed", "event", ev.Kind.String(), "error", err)
		return EndFailed, true, fmt.Errorf("%w: %w", ErrEventHandler, err)
	}
	if !cont {
		if ev.Kind != sink.EventFrame {
			d.respond(ev)
		}
		return EndHandler, true, nil
	}
	return 0, false, nil
}

func (d *Driver) respond(ev sink.Event) {
	d.response = ev.Response()
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	d.responseAt = at.Sub(d.start)
	d.logger.Info("playback: response", "response", d.response, "response_time", d.responseAt)
}

// shutdown stops the player, joins its tasks, then releases the sinks. The
// audio sink is only closed once the tasks are joined.
func (d *Driver) shutdown() error {
	d.player.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	defer cancel()

	var errs []error
	joined := true
	if err := d.player.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
		d.logger.Warn("playback: pacing tasks did not exit in time", "timeout", d.shutdownTimeout)
		errs = append(errs, fmt.Errorf("playback: join tasks: %w", err))
		joined = false
	}

	if d.video != nil {
		if err := d.video.Finish(); err != nil {
			errs = append(errs, fmt.Errorf("playback: finish video: %w", err))
		}
	}
	// An audio task that was not joined may still be inside Write
	if d.audioOpen.CompareAndSwap(true, false) {
		if !joined {
			d.logger.Warn("playback: audio output left open, audio task still running")
		} else if err := d.audio.Close(); err != nil {
			errs = append(errs, fmt.Errorf("playback: close audio: %w", err))
		}
	}
	return errors.Join(errs...)
}
