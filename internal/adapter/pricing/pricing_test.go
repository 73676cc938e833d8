package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRateSource is a mock implementation of RateSource for testing
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func TestHTTPRateSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base":"TWD","rates":{"usd":31.9,"JPY":"0.2","XXX":0}}`)
	}))
	defer srv.Close()

	rates, err := (&HTTPRateSource{URL: srv.URL}).FetchRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "31.9", rates["USD"].String())
	assert.Equal(t, "0.2", rates["JPY"].String())
	assert.NotContains(t, rates, "XXX")
}

func TestHTTPRateSource_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := (&HTTPRateSource{URL: srv.URL}).FetchRates(context.Background())
	assert.Error(t, err)
}

func TestRateCache_RefreshesOncePerTTL(t *testing.T) {
	ctx := context.Background()
	source := new(MockRateSource)
	source.On("FetchRates", ctx).Return(map[string]decimal.Decimal{"USD": decimal.NewFromInt(30)}, nil).Once()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	cache := NewRateCache(source, time.Hour, zerolog.Nop())
	cache.Now = func() time.Time { return now }

	assert.Equal(t, "30", cache.Rates(ctx)["USD"].String())
	now = now.Add(30 * time.Minute)
	assert.Equal(t, "30", cache.Rates(ctx)["USD"].String())
	assert.Equal(t, "35.2", cache.Rates(ctx)["EUR"].String(), "fallback fills missing currencies")

	source.AssertNumberOfCalls(t, "FetchRates", 1)

	source.On("FetchRates", ctx).Return(map[string]decimal.Decimal{"USD": decimal.NewFromInt(31)}, nil).Once()
	now = now.Add(time.Hour)
	assert.Equal(t, "31", cache.Rates(ctx)["USD"].String())
	source.AssertNumberOfCalls(t, "FetchRates", 2)
}

func TestRateCache_UpstreamFailureServesStaleOrFallback(t *testing.T) {
	ctx := context.Background()
	source := new(MockRateSource)
	source.On("FetchRates", ctx).Return(nil, errors.New("down")).Once()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	cache := NewRateCache(source, time.Hour, zerolog.Nop())
	cache.Now = func() time.Time { return now }

	rates := cache.Rates(ctx)
	assert.Equal(t, "32.5", rates["USD"].String())

	source.On("FetchRates", ctx).Return(map[string]decimal.Decimal{"USD": decimal.NewFromInt(29)}, nil).Once()
	cache.Invalidate()
	assert.Equal(t, "29", cache.Rates(ctx)["USD"].String())

	source.On("FetchRates", ctx).Return(nil, errors.New("down again")).Once()
	cache.Invalidate()
	assert.Equal(t, "29", cache.Rates(ctx)["USD"].String(), "stale table survives a failed refresh")
}

func TestHTTPPriceSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ticker") {
		case "2330":
			assert.Equal(t, "TW", r.URL.Query().Get("market"))
			fmt.Fprint(w, `{"ticker":"2330","price":612.5}`)
		case "ZERO":
			fmt.Fprint(w, `{"ticker":"ZERO","price":0}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	source := &HTTPPriceSource{BaseURL: srv.URL}

	price, err := source.Price(context.Background(), "2330", "TW")
	require.NoError(t, err)
	assert.Equal(t, "612.5", price.String())

	_, err = source.Price(context.Background(), "ZERO", "")
	assert.Error(t, err)

	_, err = source.Price(context.Background(), "MISSING", "US")
	assert.Error(t, err)

	_, err = (&HTTPPriceSource{}).Price(context.Background(), "2330", "TW")
	assert.Error(t, err)
}

func TestPoller_RefreshesOnlyActiveUsers(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	var calls []string
	p := NewPoller(time.Second, func(ctx context.Context, userID string) (int, error) {
		calls = append(calls, userID)
		return 1, nil
	}, zerolog.Nop())
	p.Now = func() time.Time { return now }

	p.Touch("alice")
	p.Touch("bob")
	now = now.Add(4 * time.Minute)
	p.Touch("bob")
	now = now.Add(2 * time.Minute)

	p.Tick(context.Background())
	assert.Equal(t, []string{"bob"}, calls)
	assert.Equal(t, []string{"bob"}, p.Active())
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(5*time.Millisecond, func(ctx context.Context, userID string) (int, error) {
		ticks.Add(1)
		return 0, errors.New("ignored")
	}, zerolog.Nop())
	p.Touch("alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
