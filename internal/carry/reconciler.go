// Package carry merges short-rate and dividend-yield observations from a
// primary ticker, a proxy ticker, and a scalar fallback into one resolved
// pair per expiration. Yield data is sparse for index tickers, which is the
// whole reason the proxy and fallback tiers exist.
package carry

import "github.com/quantops/oratsfeed/internal/orats"

// Resolved is the reconciled carry pair for one expiration. DivYield is never
// nil (a missing yield resolves to 0); ShortRate stays nil when no tier
// produced a rate, and the discount computation skips the row.
type Resolved struct {
	ShortRate *float64
	DivYield  float64
}

// source produces an optional value for one fallback tier.
type source func() *float64

// firstMatch returns the first non-nil value the ordered tiers produce.
func firstMatch(tiers ...source) *float64 {
	for _, t := range tiers {
		if v := t(); v != nil {
			return v
		}
	}
	return nil
}

// Reconciler resolves (shortRate, divYield) per expiration from two quote
// maps and a scalar fallback rate.
type Reconciler struct {
	primary      map[string]orats.CarryQuote
	proxy        map[string]orats.CarryQuote
	fallbackRate *float64
}

func NewReconciler(primary, proxy map[string]orats.CarryQuote, fallbackRate *float64) *Reconciler {
	return &Reconciler{primary: primary, proxy: proxy, fallbackRate: fallbackRate}
}

// Resolve reconciles the carry pair for one expiration date (YYYY-MM-DD).
//
// Yield precedence: primary quote's yield when present and non-zero, else the
// proxy's under the same condition, else 0. Rate precedence: primary quote's
// rate, else proxy's, else the scalar fallback.
func (r *Reconciler) Resolve(expirDate string) Resolved {
	primary := r.primary[expirDate]
	proxy := r.proxy[expirDate]

	yield := firstMatch(
		func() *float64 { return nonZero(primary.DivYield) },
		func() *float64 { return nonZero(proxy.DivYield) },
	)
	rate := firstMatch(
		func() *float64 { return primary.ShortRate },
		func() *float64 { return proxy.ShortRate },
		func() *float64 { return r.fallbackRate },
	)

	resolved := Resolved{ShortRate: rate}
	if yield != nil {
		resolved.DivYield = *yield
	}
	return resolved
}

func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
