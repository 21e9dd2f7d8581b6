// Package oracle resolves the SUI/USD exchange rate used for fiat
// display values. Oracle failures degrade to cached or fallback rates:
// a price lookup never fails the caller.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/kv"
)

// FallbackUSD is the rate used when the oracle is unreachable and no
// cached value exists. Display values computed from it are approximate,
// never an error state.
const FallbackUSD = 1.50

// DefaultTimeout bounds a single oracle request.
const DefaultTimeout = 10 * time.Second

// cacheKey stores the last successfully fetched rate.
const cacheKey = "oracle:sui_usd"

// PriceSource fetches the current SUI/USD rate.
type PriceSource interface {
	CurrentPrice(ctx context.Context) (float64, error)
}

// HTTPSource fetches the rate from a JSON price endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

var _ PriceSource = (*HTTPSource)(nil)

// NewHTTPSource creates a source for the given price endpoint.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
	}
}

// CurrentPrice fetches the rate. The endpoint returns either a bare
// number or {"price": "..."} with a decimal string.
func (s *HTTPSource) CurrentPrice(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price api returned status: %d", resp.StatusCode)
	}

	var result struct {
		Price string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	if result.Price == "" {
		return 0, errors.New("price api returned empty price")
	}

	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", result.Price, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("price api returned non-positive price %v", price)
	}

	return price, nil
}

// Oracle resolves the SUI/USD rate with a cache and a fixed fallback.
type Oracle struct {
	source PriceSource
	cache  kv.Store
	logger zerolog.Logger
}

// New creates an oracle over the given source and cache.
func New(source PriceSource, cache kv.Store, logger zerolog.Logger) *Oracle {
	return &Oracle{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "oracle").Logger(),
	}
}

// SuiUSD returns the current SUI/USD rate. Resolution order: live
// source, then the cached last good value, then FallbackUSD. The
// second return reports whether the rate came from the live source.
func (o *Oracle) SuiUSD(ctx context.Context) (float64, bool) {
	price, err := o.source.CurrentPrice(ctx)
	if err == nil {
		if cacheErr := o.cache.Set(ctx, cacheKey, strconv.FormatFloat(price, 'g', -1, 64)); cacheErr != nil {
			o.logger.Warn().Err(cacheErr).Msg("failed to cache oracle rate")
		}
		return price, true
	}

	o.logger.Warn().Err(err).Msg("oracle fetch failed, falling back")

	cached, cacheErr := o.cache.Get(ctx, cacheKey)
	if cacheErr == nil {
		if price, parseErr := strconv.ParseFloat(cached, 64); parseErr == nil && price > 0 {
			return price, false
		}
	}

	return FallbackUSD, false
}
