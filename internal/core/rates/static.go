package rates

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

//go:embed data/eur_rates.json
var eurRatesJSON []byte

// StaticProvider converts through a fixed table of rates against a single
// base currency: rate(a, b) = table[b] / table[a].
type StaticProvider struct {
	base  string
	table map[string]float64
}

// NewStaticProvider builds a provider from table, where table[base] is 1.
func NewStaticProvider(base string, table map[string]float64) (*StaticProvider, error) {
	t := make(map[string]float64, len(table)+1)
	for code, rate := range table {
		if err := checkRate(rate); err != nil {
			return nil, fmt.Errorf("currency %s: %w", code, err)
		}
		t[code] = rate
	}
	t[base] = 1

	return &StaticProvider{base: base, table: t}, nil
}

var (
	ecbOnce     sync.Once
	ecbProvider *StaticProvider
	ecbErr      error
)

// NewECBProvider returns the provider backed by the bundled EUR reference rates.
func NewECBProvider() (*StaticProvider, error) {
	ecbOnce.Do(func() {
		var table map[string]float64
		if err := json.Unmarshal(eurRatesJSON, &table); err != nil {
			ecbErr = fmt.Errorf("decode bundled rates: %w", err)
			return
		}
		ecbProvider, ecbErr = NewStaticProvider("EUR", table)
	})
	return ecbProvider, ecbErr
}

func (p *StaticProvider) LookupRate(ctx context.Context, base, target string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	from, ok := p.table[base]
	if !ok {
		return 0, fmt.Errorf("%w: unknown base currency %s", ErrRateUnavailable, base)
	}
	to, ok := p.table[target]
	if !ok {
		return 0, fmt.Errorf("%w: unknown target currency %s", ErrRateUnavailable, target)
	}

	return to / from, nil
}

// Codes lists the currencies the table can convert between.
func (p *StaticProvider) Codes() []string {
	codes := make([]string, 0, len(p.table))
	for code := range p.table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
