package proxy

import (
	"errors"
	"math/rand"
	"time"
)

// ErrPoolEmpty means no proxies were configured at all. This is a
// configuration error, not something a retry can fix.
var ErrPoolEmpty = errors.New("proxy pool is empty")

// Config is one egress point. Immutable once loaded.
type Config struct {
	Server   string
	Username string
	Password string
}

// Rotator hands out proxies so that every configured proxy is tried once
// before any proxy repeats. Selection within a cycle is uniform random over
// the proxies not yet tried, not round-robin.
type Rotator struct {
	pool  []Config
	tried map[string]struct{}
	rng   *rand.Rand
}

func NewRotator(pool []Config) *Rotator {
	return NewRotatorWithSeed(pool, time.Now().UnixNano())
}

// NewRotatorWithSeed exists so tests can pin the selection order.
func NewRotatorWithSeed(pool []Config, seed int64) *Rotator {
	return &Rotator{
		pool:  pool,
		tried: make(map[string]struct{}),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Size returns the number of configured proxies.
func (r *Rotator) Size() int {
	return len(r.pool)
}

// Next returns a proxy not yet tried in the current cycle, marking it tried.
// When the whole pool has been tried the cycle resets before selection.
func (r *Rotator) Next() (Config, error) {
	if len(r.pool) == 0 {
		return Config{}, ErrPoolEmpty
	}

	if len(r.tried) >= len(r.pool) {
		r.tried = make(map[string]struct{})
	}

	candidates := make([]Config, 0, len(r.pool))
	for _, p := range r.pool {
		if _, ok := r.tried[p.Server]; !ok {
			candidates = append(candidates, p)
		}
	}

	// Should not happen after the reset above, but never empty-select.
	if len(candidates) == 0 {
		r.tried = make(map[string]struct{})
		candidates = append(candidates, r.pool...)
	}

	chosen := candidates[r.rng.Intn(len(candidates))]
	r.tried[chosen.Server] = struct{}{}

	return chosen, nil
}
