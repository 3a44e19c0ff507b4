package player

import "time"

// Stats is a snapshot of player counters
type Stats struct {
	SessionID string
	Status    Status

	FramesProduced      uint64
	AudioChunksProduced uint64
	// AudioWindowsOverwritten counts windows the video task published before
	// the audio task consumed the previous one (audio lagging video)
	AudioWindowsOverwritten uint64

	SessionsStarted    uint64
	VideoTasksLaunched uint64
	AudioTasksLaunched uint64

	LastRenderedFrameIndex int64 // -1 before the first frame
	NextAudioRefresh       time.Duration
}

// Stats returns operational statistics snapshot.
//
// Counters are cumulative over the player's lifetime; stats may be slightly
// stale relative to the running tasks.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	overwritten := p.windowsOverwrote
	var sessionID string
	if p.session != nil {
		sessionID = p.session.id
		overwritten += p.session.signal.Stats().Drops
	}
	lastIdx := p.lastFrameIndex
	nextAudio := p.nextAudioRefresh
	p.mu.Unlock()

	return Stats{
		SessionID:               sessionID,
		Status:                  p.Status(),
		FramesProduced:          p.framesProduced.Load(),
		AudioChunksProduced:     p.chunksProduced.Load(),
		AudioWindowsOverwritten: overwritten,
		SessionsStarted:         p.sessionsStarted.Load(),
		VideoTasksLaunched:      p.videoTasks.Load(),
		AudioTasksLaunched:      p.audioTasks.Load(),
		LastRenderedFrameIndex:  lastIdx,
		NextAudioRefresh:        nextAudio,
	}
}
