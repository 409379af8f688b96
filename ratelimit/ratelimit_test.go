package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestSlidingWindowAdmitsExactlyMax(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(3, 10*time.Second, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "admission %d", i+1)
		clock.Advance(time.Second)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, 3, l.InFlight())

	// oldest admission was at t0; it leaves the window at t0+10s
	assert.Equal(t, 7*time.Second, l.WaitTime())
	clock.Advance(7 * time.Second)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestWaitTimeEmpty(t *testing.T) {
	l := New(2, time.Minute)
	assert.Equal(t, time.Duration(0), l.WaitTime())
}

func TestSlidingWindowDeniedRequestsAreNotRecorded(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := New(1, time.Minute, WithClock(clock.Now))

	assert.True(t, l.Allow())
	for i := 0; i < 5; i++ {
		assert.False(t, l.Allow())
	}
	clock.Advance(time.Minute)
	assert.True(t, l.Allow())
}

func TestSlidingWindowConcurrent(t *testing.T) {
	l := New(50, time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, granted)
}

func TestNewDefaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, 1, l.Limit())
	assert.Equal(t, time.Minute, l.Window())
}
