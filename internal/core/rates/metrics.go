package rates

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded around rate lookups.
type Metrics struct {
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "currency",
			Subsystem: "rate_provider",
			Name:      "lookups_total",
			Help:      "Rate lookups by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "currency",
			Subsystem: "rate_provider",
			Name:      "lookup_duration_seconds",
			Help:      "Time spent waiting for the rate provider.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.lookups, m.duration)
	return m
}

// Outcome classifies a lookup error for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "unreachable"
	}
}

type instrumentedProvider struct {
	next    Provider
	metrics *Metrics
}

// NewInstrumentedProvider records outcome and latency of every lookup made through next.
func NewInstrumentedProvider(next Provider, metrics *Metrics) Provider {
	return &instrumentedProvider{next: next, metrics: metrics}
}

func (p *instrumentedProvider) LookupRate(ctx context.Context, base, target string) (float64, error) {
	begin := time.Now()
	rate, err := p.next.LookupRate(ctx, base, target)
	p.metrics.duration.Observe(time.Since(begin).Seconds())
	p.metrics.lookups.WithLabelValues(Outcome(err)).Inc()
	return rate, err
}
