package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces a randomized politeness delay between successive requests.
// The delay is drawn uniformly from [min, max].
type Pacer struct {
	min time.Duration
	max time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer. Bounds given in the wrong order are swapped and
// negative bounds are clamped to zero.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if min > max {
		min, max = max, min
	}
	return &Pacer{
		min:   min,
		max:   max,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// WithSleep replaces the sleeping function; used by tests to avoid real waits.
func (p *Pacer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Pacer {
	p.sleep = fn
	return p
}

// Next returns the next delay without waiting.
func (p *Pacer) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	span := int64(p.max - p.min)
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(span+1))
}

// Wait blocks for a random delay and returns it. It returns early with
// ctx.Err() when ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	d := p.Next()
	if err := p.sleep(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
