package rates

import (
	"context"
	"time"

	"github.com/Nzyazin/currency/internal/core/logger"
)

// loggingProvider decorates a Provider with logging
type loggingProvider struct {
	next Provider
	log  logger.Logger
}

func NewLoggingProvider(next Provider, log logger.Logger) Provider {
	return &loggingProvider{next: next, log: log}
}

func (p *loggingProvider) LookupRate(ctx context.Context, base, target string) (rate float64, err error) {
	defer func(begin time.Time) {
		fields := []logger.Field{
			logger.StringField("method", "lookup_rate"),
			logger.StringField("base", base),
			logger.StringField("target", target),
			logger.Float64Field("rate", rate),
			logger.DurationField("took", time.Since(begin)),
		}
		if err != nil {
			p.log.Warn("rate lookup failed", append(fields, logger.ErrorField("error", err))...)
			return
		}
		p.log.Debug("rate lookup", fields...)
	}(time.Now())
	return p.next.LookupRate(ctx, base, target)
}
