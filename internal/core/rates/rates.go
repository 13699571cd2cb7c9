package rates

import (
	"context"
	"errors"
)

var (
	// ErrRateUnavailable means the provider answered but has no usable rate for the pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrProviderUnreachable means the provider could not be reached or timed out.
	ErrProviderUnreachable = errors.New("rate provider unreachable")
)

// Provider looks up the multiplier that converts an amount in base into target.
// Implementations must be safe for concurrent use.
type Provider interface {
	LookupRate(ctx context.Context, base, target string) (float64, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, base, target string) (float64, error)

func (f ProviderFunc) LookupRate(ctx context.Context, base, target string) (float64, error) {
	return f(ctx, base, target)
}
