// Package ratelimit implements a per-key token bucket, used to cap how fast
// a single island can submit price reports.
package ratelimit

import (
	"sync"
	"time"
)

// idleAfter is how long an untouched bucket survives before pruning. An
// idle bucket would have refilled to capacity anyway, so dropping it does
// not change behavior.
const idleAfter = 10 * time.Minute

const pruneEvery = 1024

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. A fresh key starts with a full bucket,
// so bursts up to capacity pass before refill pacing kicks in.
type Limiter struct {
	mu     sync.Mutex
	m      map[string]*bucket
	allows int
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow consumes one token for key when available. capacity is the burst
// size; refillPerSec is the sustained rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * refillPerSec
		if b.tokens > capacity {
			b.tokens = capacity
		}
		b.last = now
	}

	l.allows++
	if l.allows%pruneEvery == 0 {
		l.prune(now)
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) prune(now time.Time) {
	for key, b := range l.m {
		if now.Sub(b.last) > idleAfter {
			delete(l.m, key)
		}
	}
}
