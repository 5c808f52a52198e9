package orats

// StrikeRecord is one row of the hist/strikes payload. Numeric fields arrive
// as pointers because ORATS omits fields it has no value for; downstream
// derivation decides what a missing value means.
type StrikeRecord struct {
	Ticker           string   `json:"ticker"`
	TradeDate        string   `json:"tradeDate"`
	ExpirDate        string   `json:"expirDate"`
	DTE              *int     `json:"dte"`
	Strike           *float64 `json:"strike"`
	StockPrice       *float64 `json:"stockPrice"`
	CallOpenInterest *int64   `json:"callOpenInterest"`
	PutOpenInterest  *int64   `json:"putOpenInterest"`
	Gamma            *float64 `json:"gamma"`
}

// CarryQuote is a per-expiration (short rate, dividend yield) observation for
// one ticker on one source date. Either leg may be absent.
type CarryQuote struct {
	ShortRate *float64
	DivYield  *float64
}

// monyRecord is the wire shape of monies/implied rows we project.
type monyRecord struct {
	ExpirDate    string   `json:"expirDate"`
	RiskFreeRate *float64 `json:"riskFreeRate"`
	YieldRate    *float64 `json:"yieldRate"`
}

// summaryRecord is the wire shape of summaries rows we project.
type summaryRecord struct {
	Ticker       string   `json:"ticker"`
	RiskFreeRate *float64 `json:"riskFreeRate"`
}
