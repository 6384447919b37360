package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenBlocks(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("lativ", 3, 0.001), "burst request %d", i)
	}
	assert.False(t, l.Allow("lativ", 3, 0.001), "bucket drained")
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()

	assert.True(t, l.Allow("lativ", 1, 0.001))
	assert.False(t, l.Allow("lativ", 1, 0.001))
	assert.True(t, l.Allow("kapp'n", 1, 0.001), "other island keeps its own bucket")
}

func TestAllowRefills(t *testing.T) {
	l := New()

	assert.True(t, l.Allow("lativ", 1, 100))
	assert.False(t, l.Allow("lativ", 1, 100))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.Allow("lativ", 1, 100), "tokens return at the refill rate")
}

func TestPruneDropsIdleBuckets(t *testing.T) {
	l := New()

	l.Allow("lativ", 1, 1)
	l.m["lativ"].last = time.Now().Add(-idleAfter - time.Minute)
	l.prune(time.Now())

	assert.Empty(t, l.m)
}
