package job

import (
	"math"
	"time"

	"github.com/quantops/oratsfeed/internal/carry"
	"github.com/quantops/oratsfeed/internal/models"
	"github.com/quantops/oratsfeed/internal/orats"
)

const tradingDaysPerYear = 252

// RowBuilder turns raw strike records into persisted rows: gamma exposure per
// side, days-to-expiration recomputed against the stored date, and the
// carry-discounted strike level.
type RowBuilder struct {
	ticker     string
	storedDate time.Time
	multiplier float64
}

func NewRowBuilder(ticker string, storedDate time.Time, multiplier float64) *RowBuilder {
	return &RowBuilder{ticker: ticker, storedDate: storedDate, multiplier: multiplier}
}

// Build assembles one derived row. The stored date is stamped on the row
// regardless of the source session the record came from.
func (b *RowBuilder) Build(rec orats.StrikeRecord, cr carry.Resolved) models.DerivedRow {
	gexCall, gexPut := b.gammaExposure(rec)
	dte := effectiveDTE(rec, b.storedDate)

	return models.DerivedRow{
		Ticker:           b.ticker,
		TradeDate:        b.storedDate,
		ExpirDate:        rec.ExpirDate,
		DTE:              dte,
		Strike:           rec.Strike,
		StockPrice:       rec.StockPrice,
		CallOI:           rec.CallOpenInterest,
		PutOI:            rec.PutOpenInterest,
		Gamma:            rec.Gamma,
		GexCall:          gexCall,
		GexPut:           gexPut,
		ShortRate:        cr.ShortRate,
		DivYield:         cr.DivYield,
		DiscountedStrike: discountedStrike(rec.Strike, dte, cr),
	}
}

// gammaExposure computes GEX per side: gamma * S^2 * OI * multiplier, with
// missing inputs read as zero. ORATS reports one gamma per strike, shared by
// calls and puts.
func (b *RowBuilder) gammaExposure(rec orats.StrikeRecord) (call, put float64) {
	s := deref(rec.StockPrice)
	gamma := deref(rec.Gamma)
	call = gamma * s * s * float64(derefInt(rec.CallOpenInterest)) * b.multiplier
	put = gamma * s * s * float64(derefInt(rec.PutOpenInterest)) * b.multiplier
	return call, put
}

// effectiveDTE recomputes days-to-expiration relative to the stored date.
// When the expiration date does not parse, the provider's raw dte stands in,
// which may itself be absent.
func effectiveDTE(rec orats.StrikeRecord, storedDate time.Time) *int {
	exp, err := time.ParseInLocation("2006-01-02", rec.ExpirDate, time.UTC)
	if err != nil {
		return rec.DTE
	}
	days := int(exp.Sub(storedDate).Hours() / 24)
	return &days
}

// discountedStrike is strike * exp((r - q) * t) with t = (dte+1)/252.
// nil when the strike, the effective dte, or the resolved short rate is
// absent; it never panics on partial inputs.
func discountedStrike(strike *float64, dte *int, cr carry.Resolved) *float64 {
	if strike == nil || dte == nil || cr.ShortRate == nil {
		return nil
	}
	t := float64(*dte+1) / tradingDaysPerYear
	v := *strike * math.Exp((*cr.ShortRate-cr.DivYield)*t)
	return &v
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
