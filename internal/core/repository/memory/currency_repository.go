package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Nzyazin/currency/internal/core/models"
	"github.com/Nzyazin/currency/internal/core/repository"
	"github.com/Nzyazin/currency/pkg/money"
)

//go:embed data/currencies.json
var currenciesJSON []byte

type memoryCurrencyRepo struct {
	byCode map[string]models.Currency
	sorted []models.Currency
}

// NewCurrencyRepo serves a fixed set of currencies. Codes must be valid ISO 4217.
func NewCurrencyRepo(currencies []models.Currency) (repository.CurrencyRepository, error) {
	r := &memoryCurrencyRepo{byCode: make(map[string]models.Currency, len(currencies))}
	for _, c := range currencies {
		if err := money.ValidateCode(c.Code); err != nil {
			return nil, err
		}
		if _, dup := r.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate currency %s", c.Code)
		}
		r.byCode[c.Code] = c
		r.sorted = append(r.sorted, c)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].Code < r.sorted[j].Code })
	return r, nil
}

// NewEmbeddedCurrencyRepo loads the currency list bundled with the binary.
func NewEmbeddedCurrencyRepo() (repository.CurrencyRepository, error) {
	var currencies []models.Currency
	if err := json.Unmarshal(currenciesJSON, &currencies); err != nil {
		return nil, fmt.Errorf("decode bundled currencies: %w", err)
	}
	return NewCurrencyRepo(currencies)
}

func (r *memoryCurrencyRepo) List(_ context.Context) ([]models.Currency, error) {
	out := make([]models.Currency, len(r.sorted))
	copy(out, r.sorted)
	return out, nil
}

func (r *memoryCurrencyRepo) GetByCode(_ context.Context, code string) (*models.Currency, error) {
	c, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrCurrencyNotFound, code)
	}
	return &c, nil
}
