package repository

import (
	"context"
	"errors"

	"github.com/Nzyazin/currency/internal/core/models"
)

var ErrCurrencyNotFound = errors.New("currency not found")

// CurrencyRepository answers which currencies the service supports.
type CurrencyRepository interface {
	List(ctx context.Context) ([]models.Currency, error)
	GetByCode(ctx context.Context, code string) (*models.Currency, error)
}
