package ratelimit

import (
	"sort"
	"sync"
	"time"
)

const (
	// Window is the trailing period the per-minute quota is measured over.
	Window = time.Minute
	// Retention bounds how long recorded timestamps are kept.
	Retention = 15 * time.Minute
)

// Decision is the answer to a NeedsToWait check.
type Decision struct {
	MustWait         bool
	RequestsInWindow int
	// Wait is how long until the expected requests fit in the window.
	// It is nil when no wait can make them fit, i.e. when the expected
	// count alone exceeds the quota.
	Wait *time.Duration
}

// Governor tracks outbound request timestamps against a per-minute quota.
// One Governor is shared by every run in the process.
type Governor struct {
	mu           sync.Mutex
	maxPerMinute int
	timestamps   []time.Time
	now          func() time.Time
}

type Option func(*Governor)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		g.now = now
	}
}

func NewGovernor(maxPerMinute int, opts ...Option) *Governor {
	var g = &Governor{
		maxPerMinute: maxPerMinute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Governor) MaxPerMinute() int {
	return g.maxPerMinute
}

// Record registers one outbound request at the current time and drops
// timestamps older than Retention.
func (g *Governor) Record() {
	g.mu.Lock()
	defer g.mu.Unlock()

	var now = g.now()
	g.timestamps = append(g.timestamps, now)

	var horizon = now.Add(-Retention)
	var keep = 0
	for keep < len(g.timestamps) && g.timestamps[keep].Before(horizon) {
		keep++
	}
	if keep > 0 {
		g.timestamps = append(g.timestamps[:0], g.timestamps[keep:]...)
	}
}

// NeedsToWait reports whether issuing expected more requests now would
// exceed the quota for the trailing Window.
func (g *Governor) NeedsToWait(expected int) (decision Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var now = g.now()
	var from = now.Add(-Window)
	var inWindow []time.Time
	for _, ts := range g.timestamps {
		if ts.After(from) && !ts.After(now) {
			inWindow = append(inWindow, ts)
		}
	}

	decision.RequestsInWindow = len(inWindow)
	var excess = len(inWindow) + expected - g.maxPerMinute
	if excess <= 0 {
		return
	}
	decision.MustWait = true
	if excess > len(inWindow) {
		return
	}

	sort.Slice(inWindow, func(i, j int) bool {
		return inWindow[i].Before(inWindow[j])
	})
	// the oldest excess requests have to leave the window first
	var wait = inWindow[excess-1].Add(Window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	decision.Wait = &wait
	return
}
