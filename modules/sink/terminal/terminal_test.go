package terminal_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-media-player/modules/sink"
	"github.com/e7canasta/orion-media-player/modules/sink/terminal"
)

func TestParseKeys(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"letters", "ab", []string{"a", "b"}},
		{"space and return", " \r", []string{"space", "return"}},
		{"lone escape", "\x1b", []string{sink.KeyEscape}},
		{"ctrl-c aborts", "\x03", []string{sink.KeyEscape}},
		{"arrows", "\x1b[A\x1b[D", []string{"up", "left"}},
		{"escape then letter", "\x1bq", []string{sink.KeyEscape, "q"}},
		{"unknown CSI falls back to escape", "\x1b[Z", []string{sink.KeyEscape, "[", "Z"}},
		{"control bytes ignored", "\x01\x02", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, terminal.ParseKeys([]byte(tc.input)))
		})
	}
}

func TestReaderInput(t *testing.T) {
	in := terminal.NewReader(strings.NewReader("x\x1b"))

	select {
	case <-in.Done():
	case <-time.After(time.Second):
		t.Fatal("reader did not finish")
	}

	ev, ok := in.Poll()
	require.True(t, ok)
	assert.Equal(t, sink.EventKey, ev.Kind)
	assert.Equal(t, "x", ev.Key)
	assert.False(t, ev.At.IsZero())

	ev, ok = in.Poll()
	require.True(t, ok)
	assert.True(t, ev.IsEscape())

	_, ok = in.Poll()
	assert.False(t, ok)

	assert.False(t, in.Raw(), "a plain reader never enters raw mode")
	require.NoError(t, in.Close())
}

func TestNewlineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := terminal.NewlineWriter(&buf)

	n, err := w.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n, "reports the caller's byte count")
	assert.Equal(t, "one\r\ntwo\r\n", buf.String())

	buf.Reset()
	slog.New(slog.NewTextHandler(w, nil)).Info("playing")
	assert.True(t, strings.HasSuffix(buf.String(), "msg=playing\r\n"), "log line %q", buf.String())
}
