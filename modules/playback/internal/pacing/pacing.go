// Package pacing measures how regularly frames reach the screen.
package pacing

import (
	"math"
	"sync"
	"time"
)

const (
	// fpsStabilityThreshold is the maximum presentation FPS stddev as a
	// fraction of mean FPS. 25 FPS mean → stable if stddev < 3.75 FPS
	fpsStabilityThreshold = 0.15

	// jitterStabilityThreshold is the maximum mean jitter as a fraction of the
	// expected interval. 25 FPS (40ms) → stable if jitter < 8ms
	jitterStabilityThreshold = 0.20
)

// Stats summarises presentation timing
type Stats struct {
	FramesShown   int
	FramesSkipped int64 // frame indices never shown (index gaps)
	Duration      time.Duration

	FPSMean   float64
	FPSStdDev float64
	FPSMin    float64
	FPSMax    float64

	JitterMean   time.Duration
	JitterStdDev time.Duration
	JitterMax    time.Duration

	Stable bool
}

// Compute calculates presentation statistics from the wall times frames
// were shown at.
//
// Stability: FPS stddev < 15% of mean AND mean jitter < 20% of the expected
// interval (1/mean FPS).
func Compute(shown []time.Time, total time.Duration) Stats {
	n := len(shown)
	st := Stats{FramesShown: n, Duration: total}
	if n == 0 || total <= 0 {
		return st
	}

	st.FPSMean = float64(n) / total.Seconds()

	instant := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if iv := shown[i].Sub(shown[i-1]).Seconds(); iv > 0 {
			instant = append(instant, 1.0/iv)
		}
	}
	if len(instant) == 0 {
		return st
	}

	st.FPSMin, st.FPSMax = instant[0], instant[0]
	var sumSquares float64
	for _, fps := range instant {
		st.FPSMin = math.Min(st.FPSMin, fps)
		st.FPSMax = math.Max(st.FPSMax, fps)
		d := fps - st.FPSMean
		sumSquares += d * d
	}
	st.FPSStdDev = math.Sqrt(sumSquares / float64(len(instant)))

	expected := 1.0 / st.FPSMean
	jitters := make([]float64, 0, n-1)
	var jitterSum, jitterMax float64
	for i := 1; i < n; i++ {
		j := math.Abs(shown[i].Sub(shown[i-1]).Seconds() - expected)
		jitters = append(jitters, j)
		jitterSum += j
		jitterMax = math.Max(jitterMax, j)
	}
	jitterMean := jitterSum / float64(len(jitters))

	var jitterSquares float64
	for _, j := range jitters {
		d := j - jitterMean
		jitterSquares += d * d
	}

	st.JitterMean = seconds(jitterMean)
	st.JitterStdDev = seconds(math.Sqrt(jitterSquares / float64(len(jitters))))
	st.JitterMax = seconds(jitterMax)

	st.Stable = st.FPSStdDev < st.FPSMean*fpsStabilityThreshold &&
		jitterMean < expected*jitterStabilityThreshold
	return st
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Recorder collects presentation times. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	start   time.Time
	shown   []time.Time
	lastIdx int64
	skipped int64
	now     func() time.Time
}

// NewRecorder creates a recorder; now defaults to time.Now
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now, lastIdx: -1}
}

// Begin marks the start of the measured interval and clears samples
func (r *Recorder) Begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = r.now()
	r.shown = r.shown[:0]
	r.lastIdx = -1
	r.skipped = 0
}

// Shown records that frame idx reached the screen
func (r *Recorder) Shown(idx int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() {
		r.start = r.now()
	}
	r.shown = append(r.shown, r.now())
	// Index gaps within one pass; a rewind (loop, replay) is not a gap
	if r.lastIdx >= 0 && idx > r.lastIdx+1 {
		r.skipped += idx - r.lastIdx - 1
	}
	r.lastIdx = idx
}

// Stats computes statistics over everything recorded since Begin
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	shown := append([]time.Time(nil), r.shown...)
	start := r.start
	skipped := r.skipped
	end := r.now()
	r.mu.Unlock()

	if start.IsZero() {
		return Stats{}
	}
	st := Compute(shown, end.Sub(start))
	st.FramesSkipped = skipped
	return st
}
