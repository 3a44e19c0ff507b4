// Package gst implements mediasource.Source on top of GStreamer.
//
// Each opened file gets two independent pipelines, one per elementary
// stream, so video and audio pulls never contend on a decoder. Within a
// stream, pulls are serialized by a mutex.
package gst

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
	"github.com/e7canasta/orion-media-player/modules/mediasource/internal/gstreamer"
)

// seekAheadFrames is how far forward FrameAt decodes sequentially before
// seeking instead.
const seekAheadFrames = 2

// seekAheadAudio is the equivalent lookahead for SamplesIn.
const seekAheadAudio = time.Second

// Opener opens media files with GStreamer.
type Opener struct {
	// Fs is used for the existence check (default: OS filesystem)
	Fs afero.Fs
}

// NewOpener creates an opener backed by fsys (nil = OS filesystem)
func NewOpener(fsys afero.Fs) *Opener {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Opener{Fs: fsys}
}

// Open implements mediasource.Opener.
func (o *Opener) Open(path string, withAudio bool) (mediasource.Source, error) {
	fsys := o.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	exists, err := afero.Exists(fsys, path)
	if err != nil || !exists {
		return nil, fmt.Errorf("gst: open %s: %w", path, mediasource.ErrNotFound)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	video, first, err := gstreamer.OpenStream(gstreamer.PipelineConfig{Path: abs, Kind: gstreamer.KindVideo})
	if err != nil {
		return nil, wrapOpenError(path, err)
	}

	duration, err := video.Duration()
	if err != nil {
		video.Close()
		return nil, fmt.Errorf("gst: open %s: %w: %v", path, mediasource.ErrDecode, err)
	}

	caps := first.Caps
	if caps.FPS <= 0 || caps.Width <= 0 || caps.Height <= 0 {
		video.Close()
		return nil, fmt.Errorf("gst: open %s: %w: unusable video caps %+v", path, mediasource.ErrDecode, caps)
	}

	s := &Source{
		info: mediasource.Info{
			Path:     path,
			Duration: duration,
			FPS:      caps.FPS,
			Width:    caps.Width,
			Height:   caps.Height,
			Audio:    mo.None[mediasource.AudioFormat](),
		},
		video:     video,
		pending:   mo.Some(first.Data),
		nextFrame: 0,
	}

	if withAudio {
		s.openAudio(abs)
	}

	slog.Info("gst: media opened",
		"path", path,
		"duration", duration,
		"fps", caps.FPS,
		"resolution", s.info.Resolution(),
		"audio", s.info.Audio.IsPresent(),
	)
	return s, nil
}

// openAudio attaches the audio pipeline. A file without an audio track is
// not an error: audio stays absent.
func (s *Source) openAudio(path string) {
	audio, first, err := gstreamer.OpenStream(gstreamer.PipelineConfig{Path: path, Kind: gstreamer.KindAudio})
	if err != nil {
		slog.Info("gst: no usable audio track, playing video only", "path", path, "error", err)
		return
	}

	format := mediasource.AudioFormat{
		SampleRate:     first.Caps.Rate,
		Channels:       first.Caps.Channels,
		BytesPerSample: 2, // S16LE
	}
	if err := format.Validate(); err != nil {
		audio.Close()
		slog.Warn("gst: audio caps unusable, playing video only", "path", path, "caps", first.Caps)
		return
	}

	s.audio = audio
	s.audioFormat = format
	s.audioBuf = first.Data
	s.info.Audio = mo.Some(format)
}

func wrapOpenError(path string, err error) error {
	var perr *gstreamer.PullError
	if errors.As(err, &perr) && perr.Category == gstreamer.ErrCategoryNotFound {
		return fmt.Errorf("gst: open %s: %w: %v", path, mediasource.ErrNotFound, err)
	}
	return fmt.Errorf("gst: open %s: %w: %v", path, mediasource.ErrDecode, err)
}

// stream is the demand-paced reader a Source pulls from; implemented by
// *gstreamer.Stream
type stream interface {
	Pull() (gstreamer.Sample, error)
	Seek(pos time.Duration) error
	Close() error
}

// Source is a GStreamer-backed mediasource.Source.
type Source struct {
	info mediasource.Info

	videoMu   sync.Mutex
	video     stream
	pending   mo.Option[[]byte] // decoded but not yet consumed frame (index nextFrame)
	nextFrame int64             // index of the next frame Pull returns
	last      mediasource.VideoFrame

	audioMu     sync.Mutex
	audio       stream
	audioFormat mediasource.AudioFormat
	audioBuf    []byte // PCM starting at sample audioStart
	audioStart  int64
	audioEOS    bool

	closeOnce sync.Once
}

// Info implements mediasource.Source.
func (s *Source) Info() mediasource.Info {
	return s.info
}

// FrameAt implements mediasource.Source.
func (s *Source) FrameAt(t time.Duration) (mediasource.VideoFrame, error) {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()

	if s.video == nil {
		return mediasource.VideoFrame{}, fmt.Errorf("gst: frame at %v: %w: source closed", t, mediasource.ErrDecode)
	}

	target := mediasource.FrameIndex(s.info.FPS, t)

	if !s.last.Empty() && s.last.Index == target {
		return cloneFrame(s.last, t), nil
	}

	if target < s.nextFrame-1 || target > s.nextFrame+seekAheadFrames {
		pos := time.Duration(float64(target) / s.info.FPS * float64(time.Second))
		if err := s.video.Seek(pos); err != nil {
			return mediasource.VideoFrame{}, fmt.Errorf("gst: frame at %v: %w: %v", t, mediasource.ErrDecode, err)
		}
		s.pending = mo.None[[]byte]()
		s.nextFrame = target
	}

	for s.nextFrame <= target {
		data, ok := s.pending.Get()
		s.pending = mo.None[[]byte]()
		if !ok {
			sample, err := s.video.Pull()
			if errors.Is(err, gstreamer.ErrEOS) {
				// Past the last decoded frame: keep showing it
				break
			}
			if err != nil {
				return mediasource.VideoFrame{}, fmt.Errorf("gst: frame at %v: %w: %v", t, mediasource.ErrDecode, err)
			}
			data = sample.Data
		}

		s.last = mediasource.VideoFrame{
			Index:  s.nextFrame,
			Width:  s.info.Width,
			Height: s.info.Height,
			Stride: gstreamer.RGBStride(s.info.Width),
			Data:   data,
		}
		s.nextFrame++
	}

	if s.last.Empty() {
		return mediasource.VideoFrame{}, fmt.Errorf("gst: frame at %v: %w: no frame decoded", t, mediasource.ErrDecode)
	}
	return cloneFrame(s.last, t), nil
}

func cloneFrame(f mediasource.VideoFrame, t time.Duration) mediasource.VideoFrame {
	out := f
	out.Time = t
	out.Data = make([]byte, len(f.Data))
	copy(out.Data, f.Data)
	return out
}

// SamplesIn implements mediasource.Source.
func (s *Source) SamplesIn(r mediasource.SampleRange) (mediasource.AudioChunk, error) {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()

	if s.audio == nil {
		return mediasource.AudioChunk{}, fmt.Errorf("gst: samples %d-%d: %w: no audio stream", r.Start, r.End, mediasource.ErrDecode)
	}

	format := s.audioFormat
	fb := int64(format.FrameBytes())
	buffered := int64(len(s.audioBuf)) / fb
	lookahead := format.SampleIndex(seekAheadAudio)

	if r.Start < s.audioStart || r.Start > s.audioStart+buffered+lookahead {
		if err := s.audio.Seek(format.SampleTime(r.Start)); err != nil {
			return mediasource.AudioChunk{}, fmt.Errorf("gst: samples %d-%d: %w: %v", r.Start, r.End, mediasource.ErrDecode, err)
		}
		s.audioBuf = s.audioBuf[:0]
		s.audioStart = r.Start
		s.audioEOS = false
	}

	for !s.audioEOS && s.audioStart+int64(len(s.audioBuf))/fb < r.End {
		sample, err := s.audio.Pull()
		if errors.Is(err, gstreamer.ErrEOS) {
			s.audioEOS = true
			break
		}
		if err != nil {
			return mediasource.AudioChunk{}, fmt.Errorf("gst: samples %d-%d: %w: %v", r.Start, r.End, mediasource.ErrDecode, err)
		}
		s.audioBuf = append(s.audioBuf, sample.Data...)
	}

	// Drop everything before the requested range
	if skip := (r.Start - s.audioStart) * fb; skip > 0 {
		skip = min(skip, int64(len(s.audioBuf)))
		s.audioBuf = s.audioBuf[skip:]
		s.audioStart = r.Start
	}

	n := min(r.Len()*fb, int64(len(s.audioBuf)))
	data := make([]byte, n)
	copy(data, s.audioBuf[:n])

	return mediasource.AudioChunk{Range: r, Format: format, Data: data}, nil
}

// Close implements mediasource.Source.
func (s *Source) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.videoMu.Lock()
		if s.video != nil {
			errs = append(errs, s.video.Close())
			s.video = nil
		}
		s.videoMu.Unlock()

		s.audioMu.Lock()
		if s.audio != nil {
			errs = append(errs, s.audio.Close())
			s.audio = nil
		}
		s.audioBuf = nil
		s.audioMu.Unlock()

		slog.Debug("gst: media closed", "path", s.info.Path)
	})
	return errors.Join(errs...)
}

var (
	_ mediasource.Source = (*Source)(nil)
	_ stream             = (*gstreamer.Stream)(nil)
)

