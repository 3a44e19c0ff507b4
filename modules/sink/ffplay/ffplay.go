// Package ffplay is a VideoSink that streams raw RGB24 frames to an
// external ffplay process over its stdin.
package ffplay

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/sink"
)

// DefaultBinary is the player executable looked up in PATH
const DefaultBinary = "ffplay"

const exitWait = 2 * time.Second

// CommandFunc builds the process to run for the given arguments
type CommandFunc func(args ...string) *exec.Cmd

// Sink implements sink.VideoSink by piping frames into ffplay.
type Sink struct {
	command CommandFunc
	title   string
	fps     float64

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	out       *bufio.Writer
	exited    chan struct{} // closed when the process exits
	geometry  sink.Geometry
	lastIndex int64
}

// Option configures a Sink
type Option func(*Sink)

// WithCommand replaces the process constructor (default: exec.Command("ffplay", ...))
func WithCommand(fn CommandFunc) Option {
	return func(s *Sink) { s.command = fn }
}

// WithTitle sets the window title
func WithTitle(title string) Option {
	return func(s *Sink) { s.title = title }
}

// WithFPS tells ffplay the input frame rate (default: 25)
func WithFPS(fps float64) Option {
	return func(s *Sink) {
		if fps > 0 {
			s.fps = fps
		}
	}
}

// New creates a sink; the process is started by Prepare
func New(opts ...Option) *Sink {
	s := &Sink{
		command: func(args ...string) *exec.Cmd {
			return exec.Command(DefaultBinary, args...)
		},
		title:     "mediaplayer",
		fps:       25,
		lastIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the ffplay command line for g
func (s *Sink) Args(g sink.Geometry) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", g.Frame.X, g.Frame.Y),
		"-framerate", strconv.FormatFloat(s.fps, 'f', -1, 64),
		"-window_title", s.title,
		"-fflags", "nobuffer",
		"-sync", "ext",
	}
	if g.Resize {
		args = append(args, "-x", strconv.Itoa(g.Dest.Dx()), "-y", strconv.Itoa(g.Dest.Dy()))
	}
	return append(args, "-i", "-")
}

// Prepare implements sink.VideoSink: starts ffplay.
func (s *Sink) Prepare(g sink.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return fmt.Errorf("ffplay: already prepared")
	}

	cmd := s.command(s.Args(g)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffplay: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffplay: start: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.out = bufio.NewWriterSize(stdin, g.Frame.X*g.Frame.Y*3)
	s.geometry = g
	s.lastIndex = -1

	// Reap the process so it never becomes a zombie
	exited := make(chan struct{})
	s.exited = exited
	go func() {
		err := cmd.Wait()
		slog.Debug("ffplay: process exited", "error", err)
		close(exited)
	}()

	slog.Info("ffplay: started", "pid", cmd.Process.Pid, "video_size", g.Frame, "resize", g.Resize)
	return nil
}

// PushFrame implements sink.VideoSink. Stride padding is stripped so ffplay
// receives tightly packed rows.
func (s *Sink) PushFrame(f mediasource.VideoFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || isClosed(s.exited) {
		return fmt.Errorf("ffplay: push frame %d: %w", f.Index, sink.ErrClosed)
	}
	if f.Index == s.lastIndex {
		return nil
	}
	if f.Width != s.geometry.Frame.X || f.Height != s.geometry.Frame.Y {
		return fmt.Errorf("ffplay: frame %d is %dx%d, prepared for %v", f.Index, f.Width, f.Height, s.geometry.Frame)
	}

	rowBytes := f.Width * 3
	stride := f.Stride
	if stride == 0 {
		stride = rowBytes
	}
	for y := 0; y < f.Height; y++ {
		if _, err := s.out.Write(f.Data[y*stride : y*stride+rowBytes]); err != nil {
			return fmt.Errorf("ffplay: write frame %d: %w", f.Index, err)
		}
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("ffplay: write frame %d: %w", f.Index, err)
	}

	s.lastIndex = f.Index
	return nil
}

// Finish implements sink.VideoSink: closes stdin and waits for ffplay to
// exit, killing it after a grace period.
func (s *Sink) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return nil
	}
	cmd, exited := s.cmd, s.exited
	s.cmd = nil

	s.stdin.Close()
	select {
	case <-exited:
	case <-time.After(exitWait):
		slog.Warn("ffplay: did not exit after stdin closed, killing", "pid", cmd.Process.Pid)
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("ffplay: kill: %w", err)
		}
		<-exited
	}
	return nil
}

// Exited returns a channel closed when the ffplay process exits (e.g., the
// user closed its window). Nil before Prepare.
func (s *Sink) Exited() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

var _ sink.VideoSink = (*Sink)(nil)
