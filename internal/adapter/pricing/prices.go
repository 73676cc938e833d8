package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// HTTPPriceSource is a domain.PriceOracle reading {"price": 123.4} documents from
// BaseURL?ticker=...&market=...
type HTTPPriceSource struct {
	Client  *http.Client
	BaseURL string
}

type priceDocument struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

// Price implements domain.PriceOracle. An error means the price is unavailable.
func (s *HTTPPriceSource) Price(ctx context.Context, ticker, market string) (decimal.Decimal, error) {
	if s.BaseURL == "" {
		return decimal.Zero, fmt.Errorf("no price source configured")
	}

	q := url.Values{}
	q.Set("ticker", strings.ToUpper(ticker))
	if market != "" {
		q.Set("market", market)
	}
	sep := "?"
	if strings.Contains(s.BaseURL, "?") {
		sep = "&"
	}

	var doc priceDocument
	if err := jwget(ctx, s.Client, s.BaseURL+sep+q.Encode(), &doc); err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch price of %s: %w", ticker, err)
	}
	if !doc.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("no price for %s", ticker)
	}
	return doc.Price, nil
}
