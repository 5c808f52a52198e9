package orats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/quantops/oratsfeed/internal/httputil"
)

const (
	probeTimeout = 60 * time.Second
	fetchTimeout = 180 * time.Second
	carryTimeout = 30 * time.Second

	strikeFields  = "ticker,tradeDate,expirDate,dte,strike,stockPrice,callOpenInterest,putOpenInterest,gamma"
	monyFields    = "expirDate,riskFreeRate,yieldRate"
	summaryFields = "ticker,riskFreeRate"
)

// Client talks to the ORATS data API. All four logical endpoints take the
// same {ticker, tradeDate, fields} query with the token in the Authorization
// header.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

type Options struct {
	// BaseURL overrides the production API, mainly for tests.
	BaseURL string
	// HTTPClient overrides the default client. Per-call deadlines come from
	// contexts, so the default carries no global timeout.
	HTTPClient *http.Client
}

func NewClient(token string, log *zap.SugaredLogger, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.orats.io/datav2"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: hc,
		log:        log,
	}
}

// ProbeHasData is a lightweight existence check: minimal field projection,
// short timeout. A non-200 answer other than 401 is logged and reported as
// "no data" so the resolver's backward search keeps going.
func (c *Client) ProbeHasData(ctx context.Context, ticker string, date time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var records []struct {
		Ticker string `json:"ticker"`
	}
	err := c.getData(ctx, "hist/strikes", ticker, date, "ticker", &records)
	if err != nil {
		if errors.Is(err, httputil.ErrAuthentication) {
			return false, err
		}
		c.log.Warnw("strike probe failed, treating as no data",
			"ticker", ticker, "date", date.Format("2006-01-02"), "error", err)
		return false, nil
	}
	return len(records) > 0, nil
}

// FetchStrikes returns the full strike snapshot for a session. Records with a
// days-to-expiration above dteMax are dropped after the fetch; records with no
// dte at all are kept. Any HTTP failure here is fatal for the run.
func (c *Client) FetchStrikes(ctx context.Context, ticker string, date time.Time, dteMax int) ([]StrikeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var records []StrikeRecord
	if err := c.getData(ctx, "hist/strikes", ticker, date, strikeFields, &records); err != nil {
		return nil, fmt.Errorf("fetch strikes %s %s: %w", ticker, date.Format("2006-01-02"), err)
	}

	filtered := records[:0]
	for _, r := range records {
		if r.DTE != nil && *r.DTE > dteMax {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// FetchCarryQuotes returns per-expiration short rates and dividend yields for
// a ticker, trying the historical monies endpoint first and falling back to
// the live one when the historical answer is an error or empty. Carry sources
// are best-effort: everything except a 401 degrades to an empty map.
func (c *Client) FetchCarryQuotes(ctx context.Context, ticker string, date time.Time) (map[string]CarryQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, carryTimeout)
	defer cancel()

	for _, endpoint := range []string{"hist/monies/implied", "monies/implied"} {
		var records []monyRecord
		if err := c.getData(ctx, endpoint, ticker, date, monyFields, &records); err != nil {
			if errors.Is(err, httputil.ErrAuthentication) {
				return nil, err
			}
			c.log.Warnw("carry quote source unavailable",
				"endpoint", endpoint, "ticker", ticker, "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		quotes := make(map[string]CarryQuote, len(records))
		for _, r := range records {
			if r.ExpirDate == "" {
				continue
			}
			quotes[r.ExpirDate] = CarryQuote{ShortRate: r.RiskFreeRate, DivYield: r.YieldRate}
		}
		return quotes, nil
	}

	return map[string]CarryQuote{}, nil
}

// FetchFallbackRate returns the scalar short rate from the summaries
// endpoints, with the same historical-then-live, best-effort chain as
// FetchCarryQuotes. nil means no source produced a rate.
func (c *Client) FetchFallbackRate(ctx context.Context, ticker string, date time.Time) (*float64, error) {
	ctx, cancel := context.WithTimeout(ctx, carryTimeout)
	defer cancel()

	for _, endpoint := range []string{"hist/summaries", "summaries"} {
		var records []summaryRecord
		if err := c.getData(ctx, endpoint, ticker, date, summaryFields, &records); err != nil {
			if errors.Is(err, httputil.ErrAuthentication) {
				return nil, err
			}
			c.log.Warnw("fallback rate source unavailable",
				"endpoint", endpoint, "ticker", ticker, "error", err)
			continue
		}
		for _, r := range records {
			if r.RiskFreeRate != nil {
				return r.RiskFreeRate, nil
			}
		}
	}

	return nil, nil
}

// getData issues one GET against an endpoint and decodes the {"data": [...]}
// envelope into out.
func (c *Client) getData(ctx context.Context, endpoint, ticker string, date time.Time, fields string, out any) error {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("tradeDate", date.Format("2006-01-02"))
	q.Set("fields", fields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode()), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)

	resp, err := httputil.Do(c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
