package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/e7canasta/orion-media-player/modules/clock"
	"github.com/e7canasta/orion-media-player/modules/internal/mailbox"
	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// audioWindow is the playback interval the audio task pulls next
type audioWindow struct {
	From time.Duration
	To   time.Duration
}

// session is one Play..exit span of the pacing tasks.
type session struct {
	id     string
	cancel context.CancelFunc
	signal *mailbox.Slot[audioWindow]

	done chan struct{} // closed after both tasks returned
	err  error         // first task error, valid after done
}

// stop cancels the session and wakes the audio task. Idempotent.
func (s *session) stop() {
	s.cancel()
	s.signal.Close()
}

// Player owns a Clock and a mediasource.Source and runs the pacing tasks.
//
// Thread-safety: all methods are safe for concurrent use. Load, Play and
// Close are serialized against each other.
type Player struct {
	opener       mediasource.Opener
	clock        *clock.Clock
	onVideo      VideoFunc
	onAudio      AudioFunc
	playAudio    bool
	pollInterval time.Duration
	logger       *slog.Logger

	status atomic.Int32

	// ctlMu serializes operations that join tasks
	ctlMu sync.Mutex

	mu               sync.Mutex
	source           mediasource.Source
	info             mediasource.Info
	lastFrameIndex   int64
	nextAudioRefresh time.Duration
	lastFrame        mo.Option[mediasource.VideoFrame]
	lastChunk        mo.Option[mediasource.AudioChunk]
	endTime          time.Duration
	err              error
	session          *session

	framesProduced   atomic.Uint64
	chunksProduced   atomic.Uint64
	sessionsStarted  atomic.Uint64
	videoTasks       atomic.Uint64
	audioTasks       atomic.Uint64
	windowsOverwrote uint64 // from finished sessions, guarded by mu
}

// New creates an Uninitialized player that opens media with opener.
func New(opener mediasource.Opener, opts ...Option) (*Player, error) {
	if opener == nil {
		return nil, fmt.Errorf("player: nil opener")
	}

	p := &Player{
		opener:         opener,
		playAudio:      true,
		pollInterval:   DefaultPollInterval,
		logger:         slog.Default(),
		lastFrameIndex: -1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.clock == nil {
		c, err := clock.New()
		if err != nil {
			return nil, fmt.Errorf("player: %w", err)
		}
		p.clock = c
	}
	return p, nil
}

// Load opens path and makes it the current media.
//
// Errors from the opener (mediasource.ErrNotFound, mediasource.ErrDecode) and
// out-of-range media parameters (clock.ErrConfiguration) are returned before
// anything changes: the previous media and status are kept. On success any
// running session is stopped and joined, the previous source is closed, the
// clock is configured and reset, and the status becomes Ready.
func (p *Player) Load(path string) error {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()

	src, err := p.opener.Open(path, p.playAudio)
	if err != nil {
		p.logger.Warn("player: load failed", "path", path, "error", err)
		return err
	}

	info := src.Info()
	if err := validateInfo(info); err != nil {
		src.Close()
		p.logger.Warn("player: media rejected", "path", path, "error", err)
		return err
	}
	if !p.playAudio {
		info.Audio = mo.None[mediasource.AudioFormat]()
	}

	// Accepted: tear down the current session
	if p.Status() != StatusUninitialized {
		p.Stop()
	}
	p.joinLocked()

	p.mu.Lock()
	old := p.source
	p.source = src
	p.info = info
	p.lastFrameIndex = -1
	p.nextAudioRefresh = 0
	p.lastFrame = mo.None[mediasource.VideoFrame]()
	p.lastChunk = mo.None[mediasource.AudioChunk]()
	p.endTime = 0
	p.err = nil
	p.mu.Unlock()

	// Validated above, cannot fail
	_ = p.clock.SetFPS(info.FPS)
	_ = p.clock.SetMaxDuration(info.Duration)
	p.clock.Stop() // also resets

	p.status.Store(int32(StatusReady))

	if old != nil {
		if err := old.Close(); err != nil {
			p.logger.Warn("player: failed to close previous source", "error", err)
		}
	}

	p.logger.Info("player: media loaded",
		"path", path,
		"duration", info.Duration,
		"fps", info.FPS,
		"resolution", info.Resolution(),
		"audio", formatAttr(info.Audio),
	)
	return nil
}

func validateInfo(info mediasource.Info) error {
	if err := clock.ValidateFPS(info.FPS); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if err := clock.ValidateMaxDuration(info.Duration); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if format, ok := info.Audio.Get(); ok {
		if err := format.Validate(); err != nil {
			return fmt.Errorf("player: %w: %v", mediasource.ErrDecode, err)
		}
	}
	return nil
}

func formatAttr(audio mo.Option[mediasource.AudioFormat]) string {
	if format, ok := audio.Get(); ok {
		return format.String()
	}
	return "none"
}

// Play starts playback from Ready.
//
// Returns ErrInvalidState if nothing is loaded. Playing, Paused and
// EndOfStream are harmless no-ops (logged); a second concurrent run of the
// pacing tasks is never started.
func (p *Player) Play() error {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()

	switch st := p.Status(); st {
	case StatusUninitialized:
		return fmt.Errorf("%w: play requires loaded media", ErrInvalidState)
	case StatusPlaying, StatusPaused:
		p.logger.Info("player: already playing, play ignored", "status", st.String())
		return nil
	case StatusEndOfStream:
		p.logger.Info("player: at end of stream, stop before playing again")
		return nil
	}

	// Previous session was stopped; make sure its tasks are gone
	p.joinLocked()

	p.mu.Lock()
	src := p.source
	info := p.info
	p.mu.Unlock()
	if src == nil {
		return fmt.Errorf("%w: no source loaded", ErrInvalidState)
	}

	frameInterval, err := p.clock.FrameInterval()
	if err != nil {
		return fmt.Errorf("player: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		cancel: cancel,
		signal: mailbox.New[audioWindow](),
		done:   make(chan struct{}),
	}
	g, gctx := errgroup.WithContext(ctx)

	start := p.clock.Time()
	first := audioWindow{From: start, To: start + frameInterval}

	p.mu.Lock()
	p.session = s
	p.err = nil
	p.endTime = 0
	p.nextAudioRefresh = first.To
	p.mu.Unlock()

	p.status.Store(int32(StatusPlaying))
	p.sessionsStarted.Add(1)

	p.videoTasks.Add(1)
	g.Go(func() error { return p.runVideo(gctx, s, src, info) })

	format, hasAudio := info.Audio.Get()
	if hasAudio {
		p.audioTasks.Add(1)
		g.Go(func() error { return p.runAudio(gctx, s, src, format, first) })
	}

	go func() {
		s.err = g.Wait()
		close(s.done)
	}()

	p.logger.Info("player: playback started",
		"session_id", s.id,
		"path", info.Path,
		"audio", hasAudio,
	)
	return nil
}

// Pause toggles Playing↔Paused, toggling the clock in lockstep. In any
// other status it logs and does nothing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch st := p.Status(); st {
	case StatusPlaying:
		if p.status.CompareAndSwap(int32(StatusPlaying), int32(StatusPaused)) {
			p.clock.Pause()
			p.logger.Debug("player: paused", "time", p.clock.Time())
		}
	case StatusPaused:
		if p.status.CompareAndSwap(int32(StatusPaused), int32(StatusPlaying)) {
			p.clock.Pause()
			p.logger.Debug("player: resumed", "time", p.clock.Time())
		}
	default:
		p.logger.Warn("player: pause ignored", "status", st.String())
	}
}

// Stop stops the clock and returns to Ready from Playing, Paused or
// EndOfStream. It requests task shutdown but does not wait; see Wait.
func (p *Player) Stop() {
	p.mu.Lock()
	s := p.session
	p.clock.Stop()
	for _, from := range []Status{StatusPlaying, StatusPaused, StatusEndOfStream} {
		if p.status.CompareAndSwap(int32(from), int32(StatusReady)) {
			p.logger.Debug("player: stopped", "from", from.String())
			break
		}
	}
	p.endTime = 0
	p.mu.Unlock()

	if s != nil {
		s.stop()
	}
}

// Wait blocks until both pacing tasks of the current session have exited,
// or ctx is done. Returns the first task error, if any.
func (p *Player) Wait(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// joinLocked waits for the current session's tasks. Caller holds ctlMu.
func (p *Player) joinLocked() {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()
	if s == nil {
		return
	}

	s.stop()
	<-s.done

	p.mu.Lock()
	if p.session == s {
		p.windowsOverwrote += s.signal.Stats().Drops
		p.session = nil
	}
	p.mu.Unlock()
}

// Close stops playback, joins the tasks and releases the source. The player
// returns to Uninitialized and may be loaded again.
func (p *Player) Close() error {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()

	p.Stop()
	p.joinLocked()

	p.mu.Lock()
	src := p.source
	p.source = nil
	p.info = mediasource.Info{}
	p.mu.Unlock()

	p.status.Store(int32(StatusUninitialized))

	if src == nil {
		return nil
	}
	if err := src.Close(); err != nil {
		return fmt.Errorf("player: close source: %w", err)
	}
	return nil
}

// SetCallbacks replaces the video and audio callbacks. Only allowed while
// no session is playing; a finished session is joined first.
func (p *Player) SetCallbacks(video VideoFunc, audio AudioFunc) error {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()

	if st := p.Status(); st == StatusPlaying || st == StatusPaused {
		return fmt.Errorf("%w: cannot replace callbacks while %s", ErrInvalidState, st)
	}
	p.joinLocked()

	p.onVideo = video
	p.onAudio = audio
	return nil
}

// fail ends the session after a pull or callback error.
func (p *Player) fail(s *session, task string, err error) error {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	for _, from := range []Status{StatusPlaying, StatusPaused} {
		if p.status.CompareAndSwap(int32(from), int32(StatusReady)) {
			break
		}
	}
	p.clock.Stop()
	p.mu.Unlock()
	s.stop()

	p.logger.Error("player: playback failed",
		"session_id", s.id,
		"task", task,
		"error", err,
	)
	return err
}

// Status returns the current playback state.
func (p *Player) Status() Status {
	return Status(p.status.Load())
}

// CurrentTime returns the playback position. At EndOfStream it is the time
// at which the end was detected.
func (p *Player) CurrentTime() time.Duration {
	if p.Status() == StatusEndOfStream {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.endTime
	}
	return p.clock.Time()
}

// CurrentFrameIndex returns floor(fps × CurrentTime).
func (p *Player) CurrentFrameIndex() (int64, error) {
	if p.Status() == StatusEndOfStream {
		p.mu.Lock()
		defer p.mu.Unlock()
		return mediasource.FrameIndex(p.info.FPS, p.endTime), nil
	}
	return p.clock.CurrentFrame()
}

// FrameInterval returns 1/fps of the loaded media.
func (p *Player) FrameInterval() (time.Duration, error) {
	return p.clock.FrameInterval()
}

// Duration returns the loaded media's length, or 0.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.Duration
}

// FPS returns the loaded media's frame rate, or 0.
func (p *Player) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.FPS
}

// Info returns the loaded media's metadata.
func (p *Player) Info() mediasource.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// AudioFormat is present iff the media has audio and audio was requested.
func (p *Player) AudioFormat() mo.Option[mediasource.AudioFormat] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.Audio
}

// Err returns the error that ended the last session, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// CurrentVideoFrame returns the most recently produced frame.
func (p *Player) CurrentVideoFrame() mo.Option[mediasource.VideoFrame] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFrame
}

// CurrentAudioChunk returns the most recently produced audio chunk.
func (p *Player) CurrentAudioChunk() mo.Option[mediasource.AudioChunk] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastChunk
}

// SessionID returns the ID of the current (or last) playback session.
func (p *Player) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return ""
	}
	return p.session.id
}

// String implements fmt.Stringer.
func (p *Player) String() string {
	p.mu.Lock()
	duration := p.info.Duration
	p.mu.Unlock()
	return fmt.Sprintf("Player [status: %s, time: %.3fs/%.3fs]",
		p.Status(), p.CurrentTime().Seconds(), duration.Seconds())
}
