package cooldown

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how many entries accumulate before expired ones are dropped.
const sweepEvery = 1024

// MemoryGate keeps last-accepted times in process memory. State is lost on restart
// and not shared between replicas.
type MemoryGate struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryGate builds a gate; now may be nil for the wall clock.
func NewMemoryGate(window time.Duration, now func() time.Time) *MemoryGate {
	if now == nil {
		now = time.Now
	}
	return &MemoryGate{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

func (g *MemoryGate) Allow(_ context.Context, sessionID, barcode string) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	k := key(sessionID, barcode)
	if at, ok := g.last[k]; ok {
		if elapsed := now.Sub(at); elapsed < g.window {
			return Decision{RetryAfter: g.window - elapsed}, nil
		}
	}

	g.last[k] = now
	if len(g.last) >= sweepEvery {
		g.sweep(now)
	}
	return Decision{Allowed: true}, nil
}

func (g *MemoryGate) sweep(now time.Time) {
	for k, at := range g.last {
		if now.Sub(at) >= g.window {
			delete(g.last, k)
		}
	}
}

// Len reports the tracked entries.
func (g *MemoryGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}
