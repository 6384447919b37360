package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	topic string
	calls int
	err   error
	panic bool
}

func (f *fakeHandler) Topic() string { return f.topic }

func (f *fakeHandler) Handle(context.Context, []byte) error {
	f.calls++
	if f.panic {
		panic("boom")
	}
	return f.err
}

func newTestConsumer(retryMax int) *Consumer {
	return &Consumer{
		cfg: &ConsumerConfig{
			RetryMax:   retryMax,
			BackoffMin: time.Millisecond,
			BackoffMax: 2 * time.Millisecond,
		},
		stopChan: make(chan struct{}),
	}
}

func TestHandleWithRetryStopsAfterMaxAttempts(t *testing.T) {
	c := newTestConsumer(2)
	h := &fakeHandler{topic: "t", err: errors.New("transient")}

	err := c.handleWithRetry(h, &message{topic: "t"})

	require.Error(t, err)
	assert.Equal(t, 3, h.calls) // initial attempt plus two retries
}

func TestHandleWithRetrySucceeds(t *testing.T) {
	c := newTestConsumer(2)
	h := &fakeHandler{topic: "t"}

	err := c.handleWithRetry(h, &message{topic: "t"})

	require.NoError(t, err)
	assert.Equal(t, 1, h.calls)
}

func TestHandleWithRetrySkipsRetryForNonRetryable(t *testing.T) {
	c := newTestConsumer(5)
	h := &fakeHandler{topic: "t", err: fmt.Errorf("bad payload: %w", ErrNonRetryable)}

	err := c.handleWithRetry(h, &message{topic: "t"})

	require.ErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, 1, h.calls)
}

func TestHandleWithRetryRecoversPanic(t *testing.T) {
	c := newTestConsumer(2)
	h := &fakeHandler{topic: "t", panic: true}

	err := c.handleWithRetry(h, &message{topic: "t"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, 1, h.calls)
}

func TestBackoffWithJitterStaysBounded(t *testing.T) {
	min := 50 * time.Millisecond
	max := 500 * time.Millisecond

	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, max, "attempt %d", attempt)
	}
}

func TestBackoffWithJitterDefaultsBadRange(t *testing.T) {
	d := backoffWithJitter(0, 0, 1)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 50*time.Millisecond)
}
