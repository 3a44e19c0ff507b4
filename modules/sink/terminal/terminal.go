// Package terminal is an InputSource that reads key presses from a
// terminal put into raw mode with golang.org/x/term.
package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/e7canasta/orion-media-player/modules/sink"
)

// DefaultBuffer is the number of key presses kept while nobody polls
const DefaultBuffer = 64

// Input implements sink.InputSource over a byte stream.
type Input struct {
	events *sink.ChanInput

	fd       int
	oldState *term.State

	closeOnce sync.Once
	done      chan struct{}
}

// Open reads keys from f. If f is a terminal it is switched to raw mode
// until Close.
func Open(f *os.File) (*Input, error) {
	fd := int(f.Fd())
	var oldState *term.State
	if term.IsTerminal(fd) {
		s, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("terminal: raw mode: %w", err)
		}
		oldState = s
	} else {
		slog.Info("terminal: input is not a terminal, reading it line-buffered")
	}

	in := newInput(f)
	in.fd = fd
	in.oldState = oldState
	return in, nil
}

// NewReader reads keys from r without touching terminal state.
func NewReader(r io.Reader) *Input {
	return newInput(r)
}

func newInput(r io.Reader) *Input {
	in := &Input{
		events: sink.NewChanInput(DefaultBuffer),
		done:   make(chan struct{}),
	}
	go in.read(r)
	return in
}

// read runs until r fails. A read blocked on stdin is not interrupted by
// Close; it ends with the process.
func (in *Input) read(r io.Reader) {
	defer close(in.done)

	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, key := range ParseKeys(buf[:n]) {
			if !in.events.Key(key) {
				slog.Debug("terminal: key dropped, buffer full", "key", key)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("terminal: read ended", "error", err)
			}
			return
		}
	}
}

// Raw reports whether the terminal was switched to raw mode
func (in *Input) Raw() bool {
	return in.oldState != nil
}

// Poll implements sink.InputSource.
func (in *Input) Poll() (sink.Event, bool) {
	return in.events.Poll()
}

// Done is closed when the underlying reader is exhausted
func (in *Input) Done() <-chan struct{} {
	return in.done
}

// Close restores the terminal state. Safe to call multiple times.
func (in *Input) Close() error {
	var err error
	in.closeOnce.Do(func() {
		if in.oldState != nil {
			err = term.Restore(in.fd, in.oldState)
		}
	})
	return err
}

// NewlineWriter expands "\n" to "\r\n" on the way to w. Raw mode also turns
// off output processing, so text written to the same terminal needs it.
func NewlineWriter(w io.Writer) io.Writer {
	return &newlineWriter{w: w}
}

type newlineWriter struct {
	w io.Writer
}

func (nw *newlineWriter) Write(p []byte) (int, error) {
	if _, err := nw.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ sink.InputSource = (*Input)(nil)
