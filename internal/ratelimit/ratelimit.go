// Package ratelimit throttles form submissions with per-client token
// buckets.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens   float64
	rate     int
	lastSeen time.Time
}

// Limiter is a token-bucket limiter keyed by arbitrary strings, typically
// "<scope>:<client ip>". Each bucket holds rate tokens and refills fully
// over window.
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	defaultRate int
	window      time.Duration
	now         func() time.Time
}

// New creates a Limiter allowing defaultRate requests per window.
func New(defaultRate int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:     make(map[string]*bucket),
		defaultRate: defaultRate,
		window:      window,
		now:         time.Now,
	}
}

func (l *Limiter) rateFor(custom int) int {
	if custom > 0 {
		return custom
	}
	return l.defaultRate
}

// load returns the refilled bucket for key. Caller holds mu.
func (l *Limiter) load(key string, rate int) *bucket {
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rate), rate: rate, lastSeen: now}
		l.buckets[key] = b
		return b
	}
	b.rate = rate
	if elapsed := now.Sub(b.lastSeen).Seconds(); elapsed > 0 {
		b.tokens += elapsed * float64(rate) / l.window.Seconds()
		if b.tokens > float64(rate) {
			b.tokens = float64(rate)
		}
		b.lastSeen = now
	}
	return b
}

// Allow consumes one token for key and reports whether one was available.
// A positive rate overrides the default for this key.
func (l *Limiter) Allow(key string, rate int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.load(key, l.rateFor(rate))
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Status reports the bucket size, the whole tokens left and when the bucket
// will be full again.
func (l *Limiter) Status(key string, rate int) (limit, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit = l.rateFor(rate)
	b := l.load(key, limit)
	remaining = max(int(b.tokens), 0)

	now := l.now()
	deficit := float64(limit) - b.tokens
	if deficit <= 0 {
		return limit, remaining, now
	}
	perSecond := float64(limit) / l.window.Seconds()
	return limit, remaining, now.Add(time.Duration(deficit / perSecond * float64(time.Second)))
}

// Prune drops buckets untouched for longer than idle and returns how many
// were removed. A dropped bucket would have been full anyway once idle
// exceeds the window.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
