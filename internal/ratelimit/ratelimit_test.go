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

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

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

func newTestLimiter(rate int, window time.Duration, clock *fakeClock) *Limiter {
	l := New(rate, window)
	l.now = clock.Now
	return l
}

// attempts counts how many of n consecutive calls are allowed.
func attempts(l *Limiter, key string, rate, n int) int {
	ok := 0
	for range n {
		if l.Allow(key, rate) {
			ok++
		}
	}
	return ok
}

func TestLoginAttemptsPerClient(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	l := newTestLimiter(5, time.Minute, clock)

	assert.Equal(t, 5, attempts(l, "login:10.0.0.1", 0, 8))
	assert.Equal(t, 5, attempts(l, "login:10.0.0.2", 0, 8), "a second client has its own bucket")
	assert.Equal(t, 5, attempts(l, "registration:10.0.0.1", 0, 8), "scopes do not share buckets")
	assert.Equal(t, 3, l.Len())
}

func TestRefillIsGradual(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	// One token every 12 seconds.
	l := newTestLimiter(5, time.Minute, clock)
	require.Equal(t, 5, attempts(l, "email:10.0.0.1", 0, 5))

	clock.Advance(11 * time.Second)
	assert.False(t, l.Allow("email:10.0.0.1", 0))

	clock.Advance(time.Second)
	assert.True(t, l.Allow("email:10.0.0.1", 0))
	assert.False(t, l.Allow("email:10.0.0.1", 0))

	clock.Advance(36 * time.Second)
	assert.Equal(t, 3, attempts(l, "email:10.0.0.1", 0, 5))
}

func TestRefillStopsAtRate(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	l := newTestLimiter(4, time.Minute, clock)
	attempts(l, "k", 0, 3)

	clock.Advance(time.Hour)
	_, remaining, resetAt := l.Status("k", 0)
	assert.Equal(t, 4, remaining)
	assert.Equal(t, clock.Now(), resetAt, "a full bucket resets now")
}

func TestScopeRate(t *testing.T) {
	tests := []struct {
		name        string
		defaultRate int
		scopeRate   int
		want        int
	}{
		{"payment tighter than default", 10, 2, 2},
		{"email looser than default", 3, 6, 6},
		{"no override", 4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLimiter(tt.defaultRate, time.Minute, newFakeClock(time.Now()))
			assert.Equal(t, tt.want, attempts(l, "scope:10.0.0.1", tt.scopeRate, tt.want+3))

			limit, _, _ := l.Status("other", tt.scopeRate)
			assert.Equal(t, tt.want, limit)
		})
	}
}

func TestStatusAfterAttempts(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	l := newTestLimiter(10, time.Minute, clock)
	attempts(l, "login:10.0.0.1", 0, 4)

	limit, remaining, resetAt := l.Status("login:10.0.0.1", 0)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 6, remaining)
	// Four tokens at one per six seconds.
	assert.Equal(t, clock.Now().Add(24*time.Second), resetAt)
}

func TestConcurrentLogins(t *testing.T) {
	l := newTestLimiter(50, time.Minute, newFakeClock(time.Now()))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 120 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("login:10.0.0.9", 0) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestPruneIdleClients(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	l := newTestLimiter(5, time.Minute, clock)

	l.Allow("login:10.0.0.1", 0)
	l.Allow("email:10.0.0.1", 0)
	clock.Advance(10 * time.Minute)
	l.Allow("login:10.0.0.2", 0)

	assert.Equal(t, 2, l.Prune(5*time.Minute))
	assert.Equal(t, 1, l.Len())
	assert.Zero(t, l.Prune(5*time.Minute))
}
