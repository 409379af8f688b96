package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/ratelimit"
)

const defaultMaxErrors = 3

// Caller performs one completion against a provider.
type Caller interface {
	Call(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

func (f CallerFunc) Call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}

// Entry is the registry state of one provider.
type Entry struct {
	Name        string
	Enabled     bool
	Limiter     *ratelimit.SlidingWindow
	ErrorCount  int
	LastErrorAt time.Time
	LastError   string

	caller Caller
}

// Selection is the provider picked for one attempt.
type Selection struct {
	Name   string
	Caller Caller
}

// Status is a read-only view of an entry for health reporting.
type Status struct {
	Name          string  `json:"name"`
	Enabled       bool    `json:"enabled"`
	Healthy       bool    `json:"healthy"`
	ErrorCount    int     `json:"error_count"`
	LastError     string  `json:"last_error,omitempty"`
	InWindow      int     `json:"requests_in_window"`
	MaxRequests   int     `json:"max_requests"`
	WindowSeconds float64 `json:"window_seconds"`
	WaitSeconds   float64 `json:"wait_seconds"`
}

// Registry rotates over an ordered provider list, skipping disabled,
// failing and rate limited providers. A provider past the error threshold
// stays skipped until a success resets it, unless WithRecoveryAfter is set;
// the shipped config sets it to 300s, so a tripped provider gets one
// half-open call every 5 minutes instead of staying out for good.
type Registry struct {
	mu            sync.Mutex
	entries       []*Entry
	cursor        int
	maxErrors     int
	recoveryAfter time.Duration
	now           func() time.Time
}

type Option func(*Registry)

// WithMaxErrors sets how many errors a provider may accumulate before it
// is skipped (skipped when error count > n).
func WithMaxErrors(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxErrors = n
		}
	}
}

// WithRecoveryAfter lets a tripped provider take one probe call once d has
// passed since its last error. Zero disables probing.
func WithRecoveryAfter(d time.Duration) Option {
	return func(r *Registry) { r.recoveryAfter = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{maxErrors: defaultMaxErrors, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register appends a provider. Order defines priority.
func (r *Registry) Register(name string, enabled bool, limiter *ratelimit.SlidingWindow, caller Caller) {
	if limiter == nil {
		limiter = ratelimit.New(60, time.Minute)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &Entry{
		Name:    name,
		Enabled: enabled && caller != nil,
		Limiter: limiter,
		caller:  caller,
	})
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// healthy reports whether e may be asked for admission at now.
func healthy(e *Entry, maxErrors int, recoveryAfter time.Duration, now time.Time) bool {
	if !e.Enabled {
		return false
	}
	if e.ErrorCount <= maxErrors {
		return true
	}
	return recoveryAfter > 0 && now.Sub(e.LastErrorAt) >= recoveryAfter
}

// selectNext scans at most len(entries) slots starting at cursor. Unhealthy
// entries and entries whose limiter denies admission advance the cursor;
// the first admitted entry is returned with the cursor left on it.
func selectNext(entries []*Entry, cursor int, now time.Time, maxErrors int, recoveryAfter time.Duration,
	admit func(*Entry) bool) (int, int, bool) {
	n := len(entries)
	if n == 0 {
		return -1, 0, false
	}
	cursor %= n
	for i := 0; i < n; i++ {
		e := entries[cursor]
		if !healthy(e, maxErrors, recoveryAfter, now) {
			cursor = (cursor + 1) % n
			continue
		}
		if admit(e) {
			return cursor, cursor, true
		}
		cursor = (cursor + 1) % n
	}
	return -1, cursor, false
}

// Available returns the next admissible provider, consuming one slot of
// its rate limit.
func (r *Registry) Available() (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	idx, cursor, ok := selectNext(r.entries, r.cursor, now, r.maxErrors, r.recoveryAfter, func(e *Entry) bool {
		if e.Limiter.Allow() {
			return true
		}
		metrics.IncRateLimited(e.Name)
		logger.Debugf("provider %s rate limited, wait %v", e.Name, e.Limiter.WaitTime())
		return false
	})
	r.cursor = cursor
	if !ok {
		return Selection{}, false
	}
	e := r.entries[idx]
	if e.ErrorCount > r.maxErrors {
		// half-open probe: restart the cool-down so concurrent callers wait
		e.LastErrorAt = now
		logger.Infof("provider %s probing after %d errors", e.Name, e.ErrorCount)
	}
	return Selection{Name: e.Name, Caller: e.caller}, true
}

func (r *Registry) find(name string) *Entry {
	for _, e := range r.entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// MarkError records a failed call.
func (r *Registry) MarkError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.find(name)
	if e == nil {
		return
	}
	e.ErrorCount++
	e.LastErrorAt = r.now()
	if err != nil {
		e.LastError = err.Error()
	}
	logger.Warnf("provider %s error #%d: %v", name, e.ErrorCount, err)
}

// ResetErrors clears the error count after a successful call.
func (r *Registry) ResetErrors(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.find(name); e != nil {
		e.ErrorCount = 0
		e.LastError = ""
	}
}

// advancePast moves the cursor to the slot after name when it points at it.
func (r *Registry) advancePast(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	if n == 0 {
		return
	}
	if r.entries[r.cursor%n].Name == name {
		r.cursor = (r.cursor + 1) % n
	}
}

// CallWithFallback tries up to one attempt per registered provider and
// returns the first successful answer with the provider name. It never
// waits for a rate limit window; a denied provider is simply skipped.
func (r *Registry) CallWithFallback(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	attempts := r.Len()
	var (
		all     *multierror.Error
		lastErr error
	)
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		sel, ok := r.Available()
		if !ok {
			break
		}
		start := time.Now()
		answer, err := sel.Caller.Call(ctx, prompt, maxTokens)
		metrics.ObserveProvider(sel.Name, start, err)
		if err == nil {
			r.ResetErrors(sel.Name)
			return answer, sel.Name, nil
		}
		callErr := &CallError{Provider: sel.Name, Err: err}
		all = multierror.Append(all, callErr)
		lastErr = callErr
		r.MarkError(sel.Name, err)
		r.advancePast(sel.Name)
	}
	if lastErr == nil {
		return "", "", ErrProviderUnavailable
	}
	return "", "", &ExhaustedError{Last: lastErr, Attempts: all}
}

// Snapshot reports per-provider state in registration order.
func (r *Registry) Snapshot() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Status{
			Name:          e.Name,
			Enabled:       e.Enabled,
			Healthy:       healthy(e, r.maxErrors, r.recoveryAfter, now),
			ErrorCount:    e.ErrorCount,
			LastError:     e.LastError,
			InWindow:      e.Limiter.InFlight(),
			MaxRequests:   e.Limiter.Limit(),
			WindowSeconds: e.Limiter.Window().Seconds(),
			WaitSeconds:   e.Limiter.WaitTime().Seconds(),
		})
	}
	return out
}

// IsExhausted reports whether err came out of CallWithFallback without an answer.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrAllProvidersExhausted) || errors.Is(err, ErrProviderUnavailable)
}
