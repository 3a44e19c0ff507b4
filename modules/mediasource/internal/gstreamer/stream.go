package gstreamer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrEOS is returned by Pull when the stream has no more samples
var ErrEOS = errors.New("gstreamer: end of stream")

// PullError is a pipeline error posted on the bus
type PullError struct {
	Category ErrorCategory
	Message  string
	Debug    string
}

func (e *PullError) Error() string {
	return fmt.Sprintf("pipeline error [%s]: %s", e.Category, e.Message)
}

const pullPoll = 100 * time.Millisecond

// Stream is a demand-paced reader over one decoding pipeline.
//
// Not safe for concurrent use; callers serialize per stream.
type Stream struct {
	elements *PipelineElements
	caps     CapsInfo
	started  bool
}

// Sample is one decoded buffer copied out of GStreamer memory
type Sample struct {
	Data []byte
	Caps CapsInfo
}

// OpenStream creates the pipeline and starts it.
//
// The first sample is pulled immediately to learn the negotiated caps; it is
// returned to the caller so no data is lost.
func OpenStream(cfg PipelineConfig) (*Stream, Sample, error) {
	elements, err := CreatePipeline(cfg)
	if err != nil {
		return nil, Sample{}, err
	}

	s := &Stream{elements: elements}
	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		DestroyPipeline(elements)
		return nil, Sample{}, fmt.Errorf("failed to start %s pipeline: %w", cfg.Kind, err)
	}
	s.started = true

	first, err := s.Pull()
	if err != nil {
		DestroyPipeline(elements)
		return nil, Sample{}, err
	}

	slog.Debug("gstreamer: stream prerolled",
		"kind", cfg.Kind.String(),
		"path", cfg.Path,
		"caps_media", first.Caps.Media,
		"width", first.Caps.Width,
		"height", first.Caps.Height,
		"fps", first.Caps.FPS,
		"rate", first.Caps.Rate,
		"channels", first.Caps.Channels,
	)
	return s, first, nil
}

// Caps returns the caps negotiated on the last pulled sample
func (s *Stream) Caps() CapsInfo {
	return s.caps
}

// Pull blocks until the next decoded sample is available.
//
// Returns ErrEOS at end of stream, or a *PullError if the pipeline posted an
// error on its bus.
func (s *Stream) Pull() (Sample, error) {
	sink := s.elements.AppSink
	for {
		sample := sink.TryPullSample(pullPoll)
		if sample != nil {
			return s.copySample(sample)
		}
		if err := s.busError(); err != nil {
			return Sample{}, err
		}
		if sink.IsEOS() {
			return Sample{}, ErrEOS
		}
	}
}

func (s *Stream) copySample(sample *gst.Sample) (Sample, error) {
	if caps := sample.GetCaps(); caps != nil {
		s.caps = ParseCaps(caps.String())
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return Sample{}, fmt.Errorf("failed to get buffer from sample")
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	// Copy data (GStreamer will reuse buffer)
	out := make([]byte, len(data))
	copy(out, data)
	buffer.Unmap()

	return Sample{Data: out, Caps: s.caps}, nil
}

// busError drains pending bus messages and returns the first pipeline error
func (s *Stream) busError() error {
	bus := s.elements.Pipeline.GetPipelineBus()
	for {
		msg := bus.TimedPop(0)
		if msg == nil {
			return nil
		}
		if msg.Type() != gst.MessageError {
			continue
		}

		gerr := msg.ParseError()
		category := ClassifyGStreamerError(gerr)
		slog.Error("gstreamer: pipeline error",
			"kind", s.elements.Kind.String(),
			"error", gerr.Error(),
			"debug", gerr.DebugString(),
			"category", category.String(),
		)
		return &PullError{Category: category, Message: gerr.Error(), Debug: gerr.DebugString()}
	}
}

// Seek repositions the stream. The next Pull returns the sample at pos.
func (s *Stream) Seek(pos time.Duration) error {
	ok := s.elements.Pipeline.SeekSimple(int64(pos), gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagAccurate)
	if !ok {
		return fmt.Errorf("failed to seek %s stream to %v", s.elements.Kind, pos)
	}
	slog.Debug("gstreamer: seek", "kind", s.elements.Kind.String(), "position", pos)
	return nil
}

// Duration queries the stream length
func (s *Stream) Duration() (time.Duration, error) {
	ok, ns := s.elements.Pipeline.QueryDuration(gst.FormatTime)
	if !ok || ns <= 0 {
		return 0, fmt.Errorf("failed to query %s duration", s.elements.Kind)
	}
	return time.Duration(ns), nil
}

// Close stops the pipeline. Safe to call multiple times.
func (s *Stream) Close() error {
	if !s.started {
		return nil
	}
	s.started = false
	return DestroyPipeline(s.elements)
}
