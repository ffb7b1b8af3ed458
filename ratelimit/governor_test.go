package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)}
}

func TestGovernor_EmptyWindowDoesNotWait(t *testing.T) {
	var g = NewGovernor(5, WithClock(newClock().Now))

	var d = g.NeedsToWait(5)

	assert.False(t, d.MustWait)
	assert.Equal(t, 0, d.RequestsInWindow)
	assert.Nil(t, d.Wait)
}

func TestGovernor_FullWindowMustWait(t *testing.T) {
	var clock = newClock()
	var g = NewGovernor(5, WithClock(clock.Now))
	for i := 0; i < 5; i++ {
		g.Record()
		clock.Advance(time.Second)
	}

	var d = g.NeedsToWait(1)

	assert.True(t, d.MustWait)
	assert.Equal(t, 5, d.RequestsInWindow)
	require.NotNil(t, d.Wait)
	// the first request was 5s ago, it leaves the window in 55s
	assert.Equal(t, 55*time.Second, *d.Wait)
}

func TestGovernor_ExactlyAtQuotaIsAllowed(t *testing.T) {
	var g = NewGovernor(5, WithClock(newClock().Now))
	for i := 0; i < 3; i++ {
		g.Record()
	}

	var d = g.NeedsToWait(2)

	assert.False(t, d.MustWait)
	assert.Equal(t, 3, d.RequestsInWindow)
}

func TestGovernor_OldRequestsLeaveTheWindow(t *testing.T) {
	var clock = newClock()
	var g = NewGovernor(5, WithClock(clock.Now))
	for i := 0; i < 5; i++ {
		g.Record()
	}
	clock.Advance(Window)

	var d = g.NeedsToWait(5)

	assert.False(t, d.MustWait)
	assert.Equal(t, 0, d.RequestsInWindow)
}

func TestGovernor_WaitIsUnknownWhenExpectedExceedsQuota(t *testing.T) {
	var g = NewGovernor(5, WithClock(newClock().Now))

	var d = g.NeedsToWait(6)

	assert.True(t, d.MustWait)
	assert.Nil(t, d.Wait)
}

func TestGovernor_RecordPrunesBeyondRetention(t *testing.T) {
	var clock = newClock()
	var g = NewGovernor(5, WithClock(clock.Now))
	g.Record()
	g.Record()
	clock.Advance(Retention + time.Second)
	g.Record()

	assert.Len(t, g.timestamps, 1)
}

func TestGovernor_ConcurrentRecord(t *testing.T) {
	var g = NewGovernor(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Record()
		}()
	}
	wg.Wait()

	var d = g.NeedsToWait(0)
	assert.Equal(t, 50, d.RequestsInWindow)
}
