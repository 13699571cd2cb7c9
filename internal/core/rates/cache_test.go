package rates

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countingProvider(rate float64, err error, calls *int32) Provider {
	return ProviderFunc(func(ctx context.Context, base, target string) (float64, error) {
		atomic.AddInt32(calls, 1)
		return rate, err
	})
}

func TestCachingProviderServesFromCache(t *testing.T) {
	var calls int32
	store := NewMemoryStore()
	p := NewCachingProvider(countingProvider(0.9, nil, &calls), store, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		rate, err := p.LookupRate(context.Background(), "USD", "EUR")
		require.NoError(t, err)
		assert.Equal(t, 0.9, rate)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err := p.LookupRate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "pairs are ordered")
}

func TestCachingProviderExpires(t *testing.T) {
	var calls int32
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	p := NewCachingProvider(countingProvider(0.9, nil, &calls), store, time.Minute, zap.NewNop())

	_, err := p.LookupRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = p.LookupRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(time.Second)
	_, err = p.LookupRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachingProviderDoesNotCacheErrors(t *testing.T) {
	var calls int32
	p := NewCachingProvider(countingProvider(0, ErrProviderUnreachable, &calls), NewMemoryStore(), time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := p.LookupRate(context.Background(), "USD", "EUR")
		assert.ErrorIs(t, err, ErrProviderUnreachable)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("connection reset")
}

func (brokenStore) Set(context.Context, string, float64, time.Duration) error {
	return errors.New("connection reset")
}

func TestCachingProviderFallsThroughBrokenStore(t *testing.T) {
	var calls int32
	p := NewCachingProvider(countingProvider(1.5, nil, &calls), brokenStore{}, time.Minute, zap.NewNop())

	rate, err := p.LookupRate(context.Background(), "GBP", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.5, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
