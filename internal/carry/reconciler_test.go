package carry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantops/oratsfeed/internal/orats"
)

func fp(v float64) *float64 { return &v }

func TestResolve_PrimaryQuoteWins(t *testing.T) {
	r := NewReconciler(
		map[string]orats.CarryQuote{"2024-04-19": {ShortRate: fp(0.052), DivYield: fp(0.013)}},
		map[string]orats.CarryQuote{"2024-04-19": {ShortRate: fp(0.048), DivYield: fp(0.02)}},
		fp(0.05),
	)

	got := r.Resolve("2024-04-19")
	require.NotNil(t, got.ShortRate)
	assert.Equal(t, 0.052, *got.ShortRate)
	assert.Equal(t, 0.013, got.DivYield)
}

func TestResolve_ZeroPrimaryYieldFallsToProxy(t *testing.T) {
	r := NewReconciler(
		map[string]orats.CarryQuote{"2024-04-19": {ShortRate: fp(0.052), DivYield: fp(0)}},
		map[string]orats.CarryQuote{"2024-04-19": {DivYield: fp(0.018)}},
		nil,
	)

	got := r.Resolve("2024-04-19")
	require.NotNil(t, got.ShortRate)
	assert.Equal(t, 0.052, *got.ShortRate, "rate should still come from the primary quote")
	assert.Equal(t, 0.018, got.DivYield)
}

// Primary yield missing, proxy yield 0.015, no per-expiration rates anywhere,
// scalar fallback 0.05 -> (0.05, 0.015).
func TestResolve_ProxyYieldWithFallbackRate(t *testing.T) {
	r := NewReconciler(
		map[string]orats.CarryQuote{"2024-04-19": {}},
		map[string]orats.CarryQuote{"2024-04-19": {DivYield: fp(0.015)}},
		fp(0.05),
	)

	got := r.Resolve("2024-04-19")
	require.NotNil(t, got.ShortRate)
	assert.Equal(t, 0.05, *got.ShortRate)
	assert.Equal(t, 0.015, got.DivYield)
}

func TestResolve_NoQuotesAtAll(t *testing.T) {
	r := NewReconciler(map[string]orats.CarryQuote{}, map[string]orats.CarryQuote{}, fp(0.05))

	got := r.Resolve("2030-01-17")
	require.NotNil(t, got.ShortRate)
	assert.Equal(t, 0.05, *got.ShortRate)
	assert.Equal(t, 0.0, got.DivYield, "missing yield resolves to zero, never nil")
}

func TestResolve_NoRateAnywhere(t *testing.T) {
	r := NewReconciler(map[string]orats.CarryQuote{}, map[string]orats.CarryQuote{}, nil)

	got := r.Resolve("2030-01-17")
	assert.Nil(t, got.ShortRate)
	assert.Equal(t, 0.0, got.DivYield)
}

func TestFirstMatch_OrderedTiers(t *testing.T) {
	var calls []string
	tier := func(name string, v *float64) source {
		return func() *float64 {
			calls = append(calls, name)
			return v
		}
	}

	got := firstMatch(tier("a", nil), tier("b", fp(1)), tier("c", fp(2)))
	require.NotNil(t, got)
	assert.Equal(t, 1.0, *got)
	assert.Equal(t, []string{"a", "b"}, calls, "later tiers must not run once one matches")

	assert.Nil(t, firstMatch(tier("a", nil)))
}
