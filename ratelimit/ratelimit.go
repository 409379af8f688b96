package ratelimit

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// SlidingWindow admits at most max requests within any window-long span.
type SlidingWindow struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	timestamps []time.Time
	now        Clock
}

type Option func(*SlidingWindow)

func WithClock(c Clock) Option {
	return func(s *SlidingWindow) {
		if c != nil {
			s.now = c
		}
	}
}

// New creates a limiter admitting max requests per window.
func New(max int, window time.Duration, opts ...Option) *SlidingWindow {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	s := &SlidingWindow{
		max:        max,
		window:     window,
		timestamps: make([]time.Time, 0, max),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// purge drops timestamps that have left the window. Caller holds mu.
func (s *SlidingWindow) purge(now time.Time) {
	cut := 0
	for cut < len(s.timestamps) && now.Sub(s.timestamps[cut]) >= s.window {
		cut++
	}
	if cut > 0 {
		s.timestamps = append(s.timestamps[:0], s.timestamps[cut:]...)
	}
}

// Allow records a request and returns true when the window has room.
func (s *SlidingWindow) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purge(now)
	if len(s.timestamps) >= s.max {
		return false
	}
	s.timestamps = append(s.timestamps, now)
	return true
}

// WaitTime is how long until the oldest retained request leaves the window.
func (s *SlidingWindow) WaitTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purge(now)
	if len(s.timestamps) == 0 {
		return 0
	}
	wait := s.window - now.Sub(s.timestamps[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// InFlight returns the number of admissions still inside the window.
func (s *SlidingWindow) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(s.now())
	return len(s.timestamps)
}

func (s *SlidingWindow) Limit() int { return s.max }

func (s *SlidingWindow) Window() time.Duration { return s.window }
