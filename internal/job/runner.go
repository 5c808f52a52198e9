package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantops/oratsfeed/internal/carry"
	"github.com/quantops/oratsfeed/internal/dates"
	"github.com/quantops/oratsfeed/internal/httputil"
	"github.com/quantops/oratsfeed/internal/models"
	"github.com/quantops/oratsfeed/internal/orats"
)

// MarketData is the provider surface the pipeline consumes.
type MarketData interface {
	ProbeHasData(ctx context.Context, ticker string, date time.Time) (bool, error)
	FetchStrikes(ctx context.Context, ticker string, date time.Time, dteMax int) ([]orats.StrikeRecord, error)
	FetchCarryQuotes(ctx context.Context, ticker string, date time.Time) (map[string]orats.CarryQuote, error)
	FetchFallbackRate(ctx context.Context, ticker string, date time.Time) (*float64, error)
}

// Store is the persistence surface the pipeline writes to.
type Store interface {
	ReplacePartition(ctx context.Context, ticker string, storedDate time.Time, rows []models.DerivedRow) error
	RefreshAggregate(ctx context.Context) error
}

// Params are the per-universe knobs of a run.
type Params struct {
	Ticker       string
	ProxyTicker  string
	DTEMax       int
	Multiplier   float64
	LookbackDays int
}

// Runner executes one end-of-day snapshot run: resolve dates, fetch strikes
// and carry, reconcile, derive, replace the partition. Strictly sequential;
// nothing is written until every fetch has succeeded.
type Runner struct {
	params Params
	data   MarketData
	store  Store
	loc    *time.Location
	log    *zap.SugaredLogger
}

func NewRunner(params Params, data MarketData, store Store, loc *time.Location, log *zap.SugaredLogger) *Runner {
	return &Runner{params: params, data: data, store: store, loc: loc, log: log}
}

// Run executes the pipeline anchored at now. A nil error covers both a
// written partition and the "no new data, nothing written" case.
func (r *Runner) Run(ctx context.Context, now time.Time, overrides dates.Overrides) error {
	resolver := dates.NewResolver(r.data, r.params.Ticker, r.params.LookbackDays, r.loc, r.log)
	res, err := resolver.Resolve(ctx, now, overrides)
	if err != nil {
		return err
	}
	r.log.Infow("resolved run dates",
		"ticker", r.params.Ticker,
		"stored_date", res.StoredDate.Format("2006-01-02"),
		"source_date", res.SourceDate.Format("2006-01-02"))

	records, err := r.data.FetchStrikes(ctx, r.params.Ticker, res.SourceDate, r.params.DTEMax)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		r.log.Warnw("no strike records after filtering, nothing written",
			"ticker", r.params.Ticker, "source_date", res.SourceDate.Format("2006-01-02"))
		return nil
	}

	reconciler, err := r.buildReconciler(ctx, res.SourceDate)
	if err != nil {
		return err
	}

	builder := NewRowBuilder(r.params.Ticker, res.StoredDate, r.params.Multiplier)
	rows := make([]models.DerivedRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, builder.Build(rec, reconciler.Resolve(rec.ExpirDate)))
	}

	if err := r.store.ReplacePartition(ctx, r.params.Ticker, res.StoredDate, rows); err != nil {
		return fmt.Errorf("replace partition: %w", err)
	}
	r.log.Infow("partition replaced",
		"ticker", r.params.Ticker,
		"stored_date", res.StoredDate.Format("2006-01-02"),
		"rows", len(rows))

	if err := r.store.RefreshAggregate(ctx); err != nil {
		r.log.Warnw("aggregate refresh failed, raw partition is intact", "error", err)
	}
	return nil
}

// buildReconciler gathers carry inputs from the primary ticker, the proxy
// ticker, and the scalar fallback. Carry sources are best-effort; a failure
// just thins out the tiers. The only error that propagates is a 401, which is
// fatal no matter which endpoint raised it.
func (r *Runner) buildReconciler(ctx context.Context, sourceDate time.Time) (*carry.Reconciler, error) {
	primary, err := r.data.FetchCarryQuotes(ctx, r.params.Ticker, sourceDate)
	if err != nil {
		if errors.Is(err, httputil.ErrAuthentication) {
			return nil, err
		}
		r.log.Warnw("primary carry quotes unavailable", "ticker", r.params.Ticker, "error", err)
		primary = map[string]orats.CarryQuote{}
	}

	var proxy map[string]orats.CarryQuote
	if r.params.ProxyTicker != "" {
		proxy, err = r.data.FetchCarryQuotes(ctx, r.params.ProxyTicker, sourceDate)
		if err != nil {
			if errors.Is(err, httputil.ErrAuthentication) {
				return nil, err
			}
			r.log.Warnw("proxy carry quotes unavailable", "ticker", r.params.ProxyTicker, "error", err)
		}
	}
	if proxy == nil {
		proxy = map[string]orats.CarryQuote{}
	}

	fallbackRate, err := r.data.FetchFallbackRate(ctx, r.params.Ticker, sourceDate)
	if err != nil {
		if errors.Is(err, httputil.ErrAuthentication) {
			return nil, err
		}
		r.log.Warnw("fallback rate unavailable", "ticker", r.params.Ticker, "error", err)
	}

	return carry.NewReconciler(primary, proxy, fallbackRate), nil
}
