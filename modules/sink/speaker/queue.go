package speaker

import "sync"

// queue is a beep.Streamer fed by Write. It never ends on its own: when
// empty it plays silence, after close it reports exhaustion.
type queue struct {
	mu      sync.Mutex
	samples [][2]float64
	max     int
	closed  bool

	queued  uint64
	played  uint64
	silence uint64
	dropped uint64
}

func newQueue(max int) *queue {
	if max <= 0 {
		max = 1
	}
	return &queue{max: max}
}

func (q *queue) push(samples [][2]float64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.samples = append(q.samples, samples...)
	q.queued += uint64(len(samples))

	// Keep the newest audio when the device falls behind
	if over := len(q.samples) - q.max; over > 0 {
		q.samples = q.samples[over:]
		q.dropped += uint64(over)
	}
}

// Stream implements beep.Streamer.
func (q *queue) Stream(samples [][2]float64) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, false
	}

	n := copy(samples, q.samples)
	q.samples = q.samples[n:]
	q.played += uint64(n)

	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	q.silence += uint64(len(samples) - n)
	return len(samples), true
}

// Err implements beep.Streamer.
func (q *queue) Err() error { return nil }

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.samples = nil
}

func (q *queue) stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		SamplesQueued:  q.queued,
		SamplesPlayed:  q.played,
		SilencePadded:  q.silence,
		SamplesDropped: q.dropped,
	}
}
