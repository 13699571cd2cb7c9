package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Nzyazin/currency/internal/core/logger"
	"github.com/Nzyazin/currency/internal/core/rates"
	"github.com/Nzyazin/currency/pkg/money"
)

// DefaultLookupTimeout bounds a rate lookup when no timeout is configured.
const DefaultLookupTimeout = 5 * time.Second

type ConversionUsecase interface {
	Convert(ctx context.Context, from money.Money, toCode string) (money.Money, error)
}

type conversionUsecase struct {
	rates   rates.Provider
	timeout time.Duration
	log     logger.Logger
}

func NewConversionUsecase(provider rates.Provider, timeout time.Duration, log logger.Logger) ConversionUsecase {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &conversionUsecase{rates: provider, timeout: timeout, log: log}
}

// Convert multiplies from by the current from.CurrencyCode->toCode rate and
// returns the carried result truncated to whole nanos. It makes exactly one
// rate lookup and never retries.
func (uc *conversionUsecase) Convert(ctx context.Context, from money.Money, toCode string) (money.Money, error) {
	// Currency codes are checked by the caller against the supported list.
	if !from.IsNormalized() {
		uc.log.Warn("Rejected uncarried amount", logger.AnyField("from", from))
		return money.Money{}, fmt.Errorf("%w: units=%d nanos=%d", ErrInvalidAmount, from.Units, from.Nanos)
	}

	factor, err := uc.lookupRate(ctx, from.CurrencyCode, toCode)
	if err != nil {
		return money.Money{}, err
	}

	// Truncation drops anything below one nano instead of rounding.
	result := from.Multiply(factor).Truncate(toCode)

	uc.log.Debug("Conversion successful",
		logger.StringField("from", from.String()),
		logger.StringField("to", result.String()),
		logger.Float64Field("rate", factor))

	return result, nil
}

func (uc *conversionUsecase) lookupRate(ctx context.Context, base, target string) (float64, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	factor, err := uc.rates.LookupRate(lookupCtx, base, target)
	if err == nil {
		err = checkFactor(factor)
	}
	if err == nil {
		return factor, nil
	}

	switch {
	case ctx.Err() != nil:
		err = fmt.Errorf("%w: %v", ErrConversionCancelled, ctx.Err())
	case errors.Is(lookupCtx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w: lookup %s->%s exceeded %s", ErrProviderUnreachable, base, target, uc.timeout)
	case errors.Is(err, ErrRateUnavailable), errors.Is(err, ErrProviderUnreachable):
		err = fmt.Errorf("lookup %s->%s: %w", base, target, err)
	default:
		err = fmt.Errorf("%w: lookup %s->%s: %v", ErrProviderUnreachable, base, target, err)
	}

	uc.log.Error("Rate lookup failed",
		logger.StringField("base", base),
		logger.StringField("target", target),
		logger.ErrorField("error", err))
	return 0, err
}

func checkFactor(factor float64) error {
	if factor > 0 && !math.IsInf(factor, 1) {
		return nil
	}
	return fmt.Errorf("%w: bad rate value %v", ErrRateUnavailable, factor)
}
