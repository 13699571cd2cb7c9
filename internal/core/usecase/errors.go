package usecase

import (
	"errors"

	"github.com/Nzyazin/currency/internal/core/rates"
	"github.com/Nzyazin/currency/pkg/money"
)

var (
	ErrRateUnavailable     = rates.ErrRateUnavailable
	ErrProviderUnreachable = rates.ErrProviderUnreachable
	ErrInvalidAmount       = money.ErrInvalidAmount
	ErrConversionCancelled = errors.New("conversion cancelled")
)
