package models

import "time"

// DerivedRow is the persisted strike-level snapshot. The partition key is
// (ticker, trade_date, expir_date, strike); TradeDate is the resolved stored
// date, not the session date the provider reported the data under.
type DerivedRow struct {
	Ticker           string
	TradeDate        time.Time
	ExpirDate        string
	DTE              *int
	Strike           *float64
	StockPrice       *float64
	CallOI           *int64
	PutOI            *int64
	Gamma            *float64
	GexCall          float64
	GexPut           float64
	ShortRate        *float64
	DivYield         float64
	DiscountedStrike *float64
}
