package currency

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	app_errors "searchhub/backend/internal/errors"
)

// fallbackCurrencies keeps the currency picker populated when the catalogue
// endpoint is down. Only names degrade; conversion math has no numeric
// fallback and fails instead of substituting a stale or default rate.
var fallbackCurrencies = map[string]Currency{
	"USD": {Name: "US Dollar", Code: "USD"},
	"EUR": {Name: "Euro", Code: "EUR"},
	"GBP": {Name: "British Pound", Code: "GBP"},
	"JPY": {Name: "Japanese Yen", Code: "JPY"},
	"CAD": {Name: "Canadian Dollar", Code: "CAD"},
	"AUD": {Name: "Australian Dollar", Code: "AUD"},
	"CHF": {Name: "Swiss Franc", Code: "CHF"},
	"CNY": {Name: "Chinese Yuan", Code: "CNY"},
}

type Converter struct {
	source RateSource
	cache  Cache
	now    func() time.Time
}

func NewConverter(source RateSource, cache Cache) *Converter {
	return &Converter{source: source, cache: cache, now: time.Now}
}

// Convert computes amount in `to` currency, rounded to 2 decimals. The rate is
// served from the cache while its TTL holds; a miss or expiry triggers exactly
// one fetch for the ordered pair.
func (cv *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return 0, fmt.Errorf("%w: currency codes must be 3 letters", app_errors.ErrValidation)
	}
	if from == to {
		return round2(amount), nil
	}

	rate, ok, err := cv.cache.Get(ctx, from, to)
	if err != nil {
		// A broken cache degrades to a fetch, no worse.
		slog.Warn("Rate cache read failed", "from", from, "to", to, "error", err)
		ok = false
	}
	if !ok {
		value, err := cv.source.Latest(ctx, from, to)
		if err != nil {
			return 0, fmt.Errorf("%w: could not fetch exchange rate for %s to %s: %v", app_errors.ErrUnavailable, from, to, err)
		}
		rate = Rate{Value: value, FetchedAt: cv.now()}
		if err := cv.cache.Set(ctx, from, to, rate); err != nil {
			slog.Warn("Rate cache write failed", "from", from, "to", to, "error", err)
		}
	}

	return round2(amount * rate.Value), nil
}

// Currencies returns the catalogue from the rate API, degrading to a static
// list of major currencies when the upstream is unreachable.
func (cv *Converter) Currencies(ctx context.Context) map[string]Currency {
	currencies, err := cv.source.Currencies(ctx)
	if err != nil {
		slog.Warn("Could not fetch currency list, using static fallback", "error", err)
		return fallbackCurrencies
	}
	return currencies
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
