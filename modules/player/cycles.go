package player

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// runVideo is the video-pacing task and the pacing authority of a session.
//
// Exit guarantees (every path): the audio mailbox is closed so the audio
// task cannot stay blocked, and the clock is stopped.
func (p *Player) runVideo(ctx context.Context, s *session, src mediasource.Source, info mediasource.Info) error {
	defer func() {
		s.signal.Close()
		p.clock.Stop()
	}()

	// Pre-roll frame 0 so the first visible frame is not a gap
	frame, err := src.FrameAt(0)
	if err != nil {
		return p.fail(s, "video", fmt.Errorf("player: preroll: %w", err))
	}
	if err := p.deliverFrame(frame); err != nil {
		return p.fail(s, "video", err)
	}
	lastIdx := frame.Index

	if ctx.Err() != nil || !p.startClock() {
		return nil
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for p.Status().Active() {
		// Time and index come from one reading so the pulled frame is idx
		now, idx, err := p.clock.Position()
		if err != nil {
			return p.fail(s, "video", fmt.Errorf("player: %w", err))
		}
		if now > info.Duration {
			p.endOfStream(s, now)
			return nil
		}

		if idx != lastIdx {
			frame, err := src.FrameAt(now)
			if err != nil {
				return p.fail(s, "video", fmt.Errorf("player: frame %d: %w", idx, err))
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := p.deliverFrame(frame); err != nil {
				return p.fail(s, "video", err)
			}

			interval, _ := p.clock.FrameInterval()
			window := audioWindow{From: now, To: now + interval}
			p.mu.Lock()
			p.nextAudioRefresh = window.To
			p.mu.Unlock()
			s.signal.Publish(window)

			lastIdx = idx
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// startClock starts the clock, honouring a Pause issued during pre-roll.
// Holds mu so it cannot interleave with Pause or Stop. Returns false without
// starting if the session was stopped in the meantime.
func (p *Player) startClock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.Status().Active() {
		return false
	}
	p.clock.Start()
	if p.Status() == StatusPaused {
		p.clock.Pause()
	}
	return true
}

func (p *Player) deliverFrame(frame mediasource.VideoFrame) error {
	if p.onVideo != nil {
		if err := p.onVideo(frame); err != nil {
			return fmt.Errorf("player: video callback: frame %d: %w", frame.Index, err)
		}
	}

	p.mu.Lock()
	p.lastFrame = mo.Some(frame)
	p.lastFrameIndex = frame.Index
	p.mu.Unlock()

	p.framesProduced.Add(1)
	return nil
}

// endOfStream records the final position and moves to EndOfStream.
func (p *Player) endOfStream(s *session, now time.Duration) {
	p.mu.Lock()
	p.endTime = now
	p.mu.Unlock()

	for _, from := range []Status{StatusPlaying, StatusPaused} {
		if p.status.CompareAndSwap(int32(from), int32(StatusEndOfStream)) {
			p.logger.Info("player: end of stream",
				"session_id", s.id,
				"time", now,
				"frames_produced", p.framesProduced.Load(),
			)
			return
		}
	}
}

// runAudio is the audio-pacing task. It produces one chunk per video frame
// signal, pulling the window recorded by the video task.
func (p *Player) runAudio(ctx context.Context, s *session, src mediasource.Source, format mediasource.AudioFormat, window audioWindow) error {
	for ctx.Err() == nil && p.Status().Active() {
		r := format.RangeFor(window.From, window.To)
		chunk, err := src.SamplesIn(r)
		if err != nil {
			return p.fail(s, "audio", fmt.Errorf("player: samples %d-%d: %w", r.Start, r.End, err))
		}

		next, ok := s.signal.Consume()
		if !ok {
			return nil
		}

		// Status may have changed while waiting
		if ctx.Err() != nil || !p.Status().Active() {
			return nil
		}

		if p.onAudio != nil {
			if err := p.onAudio(chunk); err != nil {
				return p.fail(s, "audio", fmt.Errorf("player: audio callback: samples %d-%d: %w", r.Start, r.End, err))
			}
		}

		p.mu.Lock()
		p.lastChunk = mo.Some(chunk)
		p.mu.Unlock()
		p.chunksProduced.Add(1)

		window = next
	}
	return nil
}
