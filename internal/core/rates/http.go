package rates

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"resty.dev/v3"
)

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// HTTPProvider queries a /latest?base=X&symbols=Y endpoint, one request per lookup.
type HTTPProvider struct {
	httpClient *resty.Client
}

// NewHTTPProvider creates a provider for baseURL. An empty apiKey sends no
// credentials. timeout bounds each request independently of the caller's context.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		httpClient.SetAuthScheme("Bearer").SetAuthToken(apiKey)
	}

	return &HTTPProvider{httpClient: httpClient}
}

func (p *HTTPProvider) LookupRate(ctx context.Context, base, target string) (float64, error) {
	var result latestResponse

	response, err := p.httpClient.R().
		SetContext(ctx).
		SetQueryParam("base", base).
		SetQueryParam("symbols", target).
		SetResult(&result).
		Get("/latest")
	if err != nil {
		return 0, fmt.Errorf("%w: send latest rates request: %v", ErrProviderUnreachable, err)
	}

	switch code := response.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return 0, fmt.Errorf("%w: statusCode: %d, body: %s", ErrProviderUnreachable, code, response.String())
	default:
		return 0, fmt.Errorf("%w: %s->%s (statusCode: %d, body: %s)", ErrRateUnavailable, base, target, code, response.String())
	}

	rate, ok := result.Rates[target]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s->%s", ErrRateUnavailable, base, target)
	}
	if err := checkRate(rate); err != nil {
		return 0, fmt.Errorf("%s->%s: %w", base, target, err)
	}

	return rate, nil
}

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: bad rate value %v", ErrRateUnavailable, rate)
	}
	return nil
}
