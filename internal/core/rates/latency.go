package rates

import (
	"context"
	"math/rand"
	"time"
)

// latencyProvider delays lookups into one target currency by a random
// duration in [min, max). Only meant for load and timeout testing.
type latencyProvider struct {
	next     Provider
	target   string
	min, max time.Duration
}

// NewLatencyProvider wraps next so that lookups into target are delayed.
// An empty target delays every lookup.
func NewLatencyProvider(next Provider, target string, min, max time.Duration) Provider {
	if max < min {
		max = min
	}
	return &latencyProvider{next: next, target: target, min: min, max: max}
}

func (p *latencyProvider) delay() time.Duration {
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(rand.Int63n(int64(p.max-p.min)))
}

func (p *latencyProvider) LookupRate(ctx context.Context, base, target string) (float64, error) {
	if p.target == "" || p.target == target {
		t := time.NewTimer(p.delay())
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		}
	}
	return p.next.LookupRate(ctx, base, target)
}
