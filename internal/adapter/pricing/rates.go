// Package pricing supplies exchange rates and market prices from upstream HTTP services.
// Upstream failures are absorbed here: callers get cached or fallback values.
package pricing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateSource fetches a fresh rate table, keyed by currency code, expressed in units
// of the reporting currency per unit of the keyed currency
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// FallbackRates is used for any currency the upstream never supplied
var FallbackRates = map[string]decimal.Decimal{
	"TWD": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("32.5"),
	"EUR": decimal.RequireFromString("35.2"),
	"GBP": decimal.RequireFromString("41.0"),
	"JPY": decimal.RequireFromString("0.215"),
	"CNY": decimal.RequireFromString("4.5"),
	"HKD": decimal.RequireFromString("4.16"),
}

// HTTPRateSource reads a {"rates": {"USD": 32.1, ...}} document from URL
type HTTPRateSource struct {
	Client *http.Client
	URL    string
}

type rateDocument struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates implements RateSource
func (s *HTTPRateSource) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var doc rateDocument
	if err := jwget(ctx, s.Client, s.URL, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	if len(doc.Rates) == 0 {
		return nil, fmt.Errorf("exchange rate document from %s is empty", s.URL)
	}

	out := make(map[string]decimal.Decimal, len(doc.Rates))
	for code, rate := range doc.Rates {
		if rate.IsPositive() {
			out[strings.ToUpper(code)] = rate
		}
	}
	return out, nil
}

// RateCache is a domain.RateOracle that refreshes from Source at most once per TTL.
// It never fails: on upstream errors it serves the last good table merged over Fallback.
type RateCache struct {
	Source   RateSource
	TTL      time.Duration
	Fallback map[string]decimal.Decimal
	Log      zerolog.Logger
	Now      func() time.Time

	mu        sync.Mutex
	cached    map[string]decimal.Decimal
	attempted time.Time
}

// NewRateCache creates a new RateCache instance
func NewRateCache(source RateSource, ttl time.Duration, log zerolog.Logger) *RateCache {
	return &RateCache{
		Source:   source,
		TTL:      ttl,
		Fallback: FallbackRates,
		Log:      log,
		Now:      time.Now,
	}
}

// Rates returns the current rate table. The returned map is a copy.
func (c *RateCache) Rates(ctx context.Context) map[string]decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	if c.Source != nil && (c.attempted.IsZero() || now.Sub(c.attempted) >= c.TTL) {
		c.attempted = now
		fresh, err := c.Source.FetchRates(ctx)
		if err != nil {
			c.Log.Warn().Err(err).Msg("exchange rate refresh failed, serving cached rates")
		} else {
			c.cached = fresh
			c.Log.Debug().Int("currencies", len(fresh)).Msg("exchange rates refreshed")
		}
	}

	out := make(map[string]decimal.Decimal, len(c.Fallback)+len(c.cached))
	for code, rate := range c.Fallback {
		out[code] = rate
	}
	for code, rate := range c.cached {
		out[code] = rate
	}
	return out
}

// Invalidate forces the next Rates call to refresh from Source
func (c *RateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempted = time.Time{}
}
