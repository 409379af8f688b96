package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/ratelimit"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scriptedCaller struct {
	answer string
	err    error
	calls  int
}

func (s *scriptedCaller) Call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newTestRegistry(clock *testClock, opts ...Option) *Registry {
	return NewRegistry(append([]Option{WithClock(clock.Now)}, opts...)...)
}

func limiter(clock *testClock, max int) *ratelimit.SlidingWindow {
	return ratelimit.New(max, time.Minute, ratelimit.WithClock(clock.Now))
}

func TestSelectNext(t *testing.T) {
	now := time.Unix(1000, 0)
	always := func(*Entry) bool { return true }
	never := func(*Entry) bool { return false }

	tests := []struct {
		name       string
		entries    []*Entry
		cursor     int
		admit      func(*Entry) bool
		wantIdx    int
		wantCursor int
		wantOK     bool
	}{
		{
			name:    "empty",
			entries: nil,
			admit:   always, wantIdx: -1, wantCursor: 0, wantOK: false,
		},
		{
			name:    "first healthy at cursor",
			entries: []*Entry{{Name: "a", Enabled: true}, {Name: "b", Enabled: true}},
			cursor:  1, admit: always, wantIdx: 1, wantCursor: 1, wantOK: true,
		},
		{
			name:    "skip disabled and wrap",
			entries: []*Entry{{Name: "a", Enabled: true}, {Name: "b", Enabled: false}},
			cursor:  1, admit: always, wantIdx: 0, wantCursor: 0, wantOK: true,
		},
		{
			name:    "skip tripped",
			entries: []*Entry{{Name: "a", Enabled: true, ErrorCount: 4, LastErrorAt: now}, {Name: "b", Enabled: true}},
			admit:   always, wantIdx: 1, wantCursor: 1, wantOK: true,
		},
		{
			name:    "three errors still eligible",
			entries: []*Entry{{Name: "a", Enabled: true, ErrorCount: 3}},
			admit:   always, wantIdx: 0, wantCursor: 0, wantOK: true,
		},
		{
			name:    "all denied",
			entries: []*Entry{{Name: "a", Enabled: true}, {Name: "b", Enabled: true}},
			admit:   never, wantIdx: -1, wantCursor: 0, wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, cursor, ok := selectNext(tt.entries, tt.cursor, now, 3, 0, tt.admit)
			assert.Equal(t, tt.wantIdx, idx)
			assert.Equal(t, tt.wantCursor, cursor)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCallWithFallbackUsesSecondProvider(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock)
	bad := &scriptedCaller{err: errors.New("401 unauthorized")}
	good := &scriptedCaller{answer: "answer from b"}
	r.Register("a", true, limiter(clock, 100), bad)
	r.Register("b", true, limiter(clock, 100), good)

	answer, name, err := r.CallWithFallback(context.Background(), "q", 200)
	require.NoError(t, err)
	assert.Equal(t, "answer from b", answer)
	assert.Equal(t, "b", name)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestFailingProviderSkippedUntilSuccess(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock, WithRecoveryAfter(0))
	a := &scriptedCaller{err: errors.New("timeout")}
	b := &scriptedCaller{answer: "ok"}
	r.Register("a", true, limiter(clock, 100), a)
	r.Register("b", true, limiter(clock, 100), b)

	// b keeps the cursor after succeeding; rewind so a goes first each round
	for i := 0; i < 4; i++ {
		r.mu.Lock()
		r.cursor = 0
		r.mu.Unlock()
		_, name, err := r.CallWithFallback(context.Background(), "q", 0)
		require.NoError(t, err)
		assert.Equal(t, "b", name)
	}
	assert.Equal(t, 4, a.calls)

	r.mu.Lock()
	r.cursor = 0
	r.mu.Unlock()
	_, name, err := r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Equal(t, 4, a.calls, "a must be skipped after 4 failures")

	// one success heals it
	r.ResetErrors("a")
	a.err = nil
	a.answer = "a is back"
	r.mu.Lock()
	r.cursor = 0
	r.mu.Unlock()
	answer, name, err := r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, "a is back", answer)
}

func TestRecoveryProbe(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock, WithRecoveryAfter(5*time.Minute))
	a := &scriptedCaller{err: errors.New("boom")}
	r.Register("a", true, limiter(clock, 100), a)

	for i := 0; i < 4; i++ {
		_, _, err := r.CallWithFallback(context.Background(), "q", 0)
		require.Error(t, err)
	}
	_, _, err := r.CallWithFallback(context.Background(), "q", 0)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 4, a.calls)

	clock.Advance(5 * time.Minute)
	a.err = nil
	a.answer = "recovered"
	answer, _, err := r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, 0, r.Snapshot()[0].ErrorCount)
}

func TestAllProvidersExhausted(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock)
	r.Register("a", true, limiter(clock, 10), &scriptedCaller{err: errors.New("first")})
	r.Register("b", true, limiter(clock, 10), &scriptedCaller{err: errors.New("second")})

	_, _, err := r.CallWithFallback(context.Background(), "q", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
	assert.True(t, IsExhausted(err))

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Len(t, ex.Errors(), 2)
	assert.Contains(t, err.Error(), "All inference providers failed. Last error:")
	assert.Contains(t, err.Error(), "second")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "b", callErr.Provider)
}

func TestRateLimitedProviderIsSkippedWithoutWaiting(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock)
	a := &scriptedCaller{answer: "from a"}
	b := &scriptedCaller{answer: "from b"}
	r.Register("a", true, limiter(clock, 1), a)
	r.Register("b", true, limiter(clock, 10), b)

	_, name, err := r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	_, name, err = r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, "b", name)
}

func TestNoProviders(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.CallWithFallback(context.Background(), "q", 0)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	r.Register("disabled", false, nil, &scriptedCaller{answer: "x"})
	_, ok := r.Available()
	assert.False(t, ok)
}

func TestLLMCallerWrapsPrompt(t *testing.T) {
	mock := &llm.MockLLMProvider{Response: "fine"}
	c := &LLMCaller{Provider: mock, Prompt: func(p string) string { return "Medical question: " + p }}

	out, err := c.Call(context.Background(), "is it normal", 150)
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
	assert.Equal(t, "Medical question: is it normal", mock.LastPrompt())
	assert.Equal(t, 150, mock.Options[0].MaxTokens)
}

func TestSnapshot(t *testing.T) {
	clock := &testClock{now: time.Unix(0, 0)}
	r := newTestRegistry(clock)
	r.Register("a", true, limiter(clock, 5), &scriptedCaller{answer: "x"})
	_, _, err := r.CallWithFallback(context.Background(), "q", 0)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].Name)
	assert.True(t, snap[0].Healthy)
	assert.Equal(t, 1, snap[0].InWindow)
	assert.Equal(t, 5, snap[0].MaxRequests)
}
