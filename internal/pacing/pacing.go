// Package pacing provides jittered delays used to keep the automation's
// rhythm human-shaped: settle waits after navigation, pauses between
// attempts, gaps between keystrokes.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Pacer struct {
	min time.Duration
	max time.Duration
	mu  sync.Mutex
	rng *rand.Rand
}

func New(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Duration returns a random duration in [min, max].
func (p *Pacer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Wait sleeps for a random duration in [min, max], or returns early with the
// context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Duration()
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

// Sleep blocks for a random duration in [min, max]. Used where a context is
// not threaded through, e.g. settles inside the login flow.
func Sleep(min, max time.Duration) {
	if max <= min {
		if min > 0 {
			time.Sleep(min)
		}
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min)+1)))
}
