// Package clocktest provides a manually advanced time source for clock tests.
package clocktest

import (
	"sync"
	"time"
)

// Source is a TimeSource that only moves when told to.
type Source struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// New returns a Source starting at start.
func New(start time.Time) *Source {
	return &Source{now: start}
}

// Now returns the current manual time, then moves it by the step set with
// SetStep.
func (s *Source) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now
	s.now = s.now.Add(s.step)
	return now
}

// SetStep makes every Now call advance the time by d afterwards. Zero (the
// default) keeps time still between Advance calls.
func (s *Source) SetStep(d time.Duration) {
	if d < 0 {
		return
	}
	s.mu.Lock()
	s.step = d
	s.mu.Unlock()
}

// Advance moves the time forward by d. Negative values are ignored so the
// source stays monotonic.
func (s *Source) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}
