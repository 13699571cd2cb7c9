package rates_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Nzyazin/currency/internal/core/rates"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fixedRate(rate float64, err error) rates.Provider {
	return rates.ProviderFunc(func(ctx context.Context, base, target string) (float64, error) {
		return rate, err
	})
}

func TestLatencyProviderDelaysOnlyTarget(t *testing.T) {
	p := rates.NewLatencyProvider(fixedRate(0.8, nil), "GBP", 100*time.Millisecond, 100*time.Millisecond)

	start := time.Now()
	_, err := p.LookupRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	start = time.Now()
	rate, err := p.LookupRate(context.Background(), "USD", "GBP")
	require.NoError(t, err)
	assert.Equal(t, 0.8, rate)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestLatencyProviderHonoursContext(t *testing.T) {
	p := rates.NewLatencyProvider(fixedRate(0.8, nil), "", time.Minute, 2*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.LookupRate(ctx, "USD", "GBP")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInstrumentedProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := rates.NewMetrics(reg)

	ok := rates.NewInstrumentedProvider(fixedRate(1.1, nil), metrics)
	missing := rates.NewInstrumentedProvider(fixedRate(0, fmt.Errorf("wrapped: %w", rates.ErrRateUnavailable)), metrics)
	down := rates.NewInstrumentedProvider(fixedRate(0, rates.ErrProviderUnreachable), metrics)

	ctx := context.Background()
	ok.LookupRate(ctx, "USD", "EUR")
	ok.LookupRate(ctx, "USD", "EUR")
	missing.LookupRate(ctx, "USD", "XYZ")
	down.LookupRate(ctx, "USD", "EUR")

	expected := `
# HELP currency_rate_provider_lookups_total Rate lookups by outcome.
# TYPE currency_rate_provider_lookups_total counter
currency_rate_provider_lookups_total{outcome="ok"} 2
currency_rate_provider_lookups_total{outcome="unavailable"} 1
currency_rate_provider_lookups_total{outcome="unreachable"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "currency_rate_provider_lookups_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "currency_rate_provider_lookup_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", rates.Outcome(nil))
	assert.Equal(t, "unavailable", rates.Outcome(rates.ErrRateUnavailable))
	assert.Equal(t, "unreachable", rates.Outcome(rates.ErrProviderUnreachable))
	assert.Equal(t, "unreachable", rates.Outcome(context.DeadlineExceeded))
	assert.Equal(t, "cancelled", rates.Outcome(context.Canceled))
}

func TestLoggingProvider(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	rates.NewLoggingProvider(fixedRate(0.9, nil), log).LookupRate(context.Background(), "USD", "EUR")
	rates.NewLoggingProvider(fixedRate(0, rates.ErrProviderUnreachable), log).LookupRate(context.Background(), "USD", "EUR")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "EUR", entries[0].ContextMap()["target"])
	assert.Equal(t, 0.9, entries[0].ContextMap()["rate"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "rate lookup failed", entries[1].Message)
	assert.Contains(t, entries[1].ContextMap(), "error")
}
