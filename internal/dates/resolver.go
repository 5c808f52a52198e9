package dates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoSourceDate means the backward search exhausted the lookback window
// without finding a session the provider has data for. Fatal for the run.
var ErrNoSourceDate = errors.New("no source date with data within lookback window")

// Prober answers whether the provider has at least one strike record for a
// ticker on a given market date.
type Prober interface {
	ProbeHasData(ctx context.Context, ticker string, date time.Time) (bool, error)
}

// Resolver decides which market date to query (source date) and which date to
// record the snapshot under (stored date). The offset rule has churned over
// the life of this job, so everything that shapes it is injected here rather
// than hard-coded at the call sites.
type Resolver struct {
	prober       Prober
	ticker       string
	maxLookback  int
	referenceLoc *time.Location
	log          *zap.SugaredLogger
}

// Overrides pins either date explicitly, bypassing the corresponding rule.
type Overrides struct {
	StoredDate *time.Time
	SourceDate *time.Time
}

// Resolution is the pair of dates the rest of the pipeline runs on.
type Resolution struct {
	// StoredDate keys the partition being written.
	StoredDate time.Time
	// SourceDate is the market session queried from the provider.
	SourceDate time.Time
}

func NewResolver(prober Prober, ticker string, maxLookback int, loc *time.Location, log *zap.SugaredLogger) *Resolver {
	if maxLookback <= 0 {
		maxLookback = 7
	}
	return &Resolver{
		prober:       prober,
		ticker:       ticker,
		maxLookback:  maxLookback,
		referenceLoc: loc,
		log:          log,
	}
}

// Resolve computes the stored and source dates for a run anchored at now.
//
// Stored date: the override if given, else today's calendar date in the
// reference zone, pushed to the next business day when it lands on a weekend.
// The job typically fires the morning after a session closes, so the stored
// date is "today" while the data describes an earlier session.
//
// Source date: the override if given, else the most recent business day
// strictly before the stored date for which the provider reports data,
// walking backward one business day at a time. The provider publishes with a
// variable delay, hence the search instead of a fixed one-day offset. The
// lookback limit counts business-day probes, so the window spans more
// calendar days than its nominal size (a limit of 7 reaches back roughly a
// week and a half).
func (r *Resolver) Resolve(ctx context.Context, now time.Time, opts Overrides) (Resolution, error) {
	var res Resolution

	if opts.StoredDate != nil {
		res.StoredDate = midnight(*opts.StoredDate)
	} else {
		res.StoredDate = midnight(now.In(r.referenceLoc))
		if !IsBusinessDay(res.StoredDate) {
			res.StoredDate = NextBusinessDay(res.StoredDate)
		}
	}

	if opts.SourceDate != nil {
		res.SourceDate = midnight(*opts.SourceDate)
		return res, nil
	}

	day := PreviousBusinessDay(res.StoredDate)
	for attempt := 0; attempt < r.maxLookback; attempt++ {
		ok, err := r.prober.ProbeHasData(ctx, r.ticker, day)
		if err != nil {
			return Resolution{}, fmt.Errorf("probe %s %s: %w", r.ticker, day.Format("2006-01-02"), err)
		}
		if ok {
			res.SourceDate = day
			return res, nil
		}
		r.log.Debugw("no data for candidate source date, stepping back",
			"ticker", r.ticker, "date", day.Format("2006-01-02"))
		day = PreviousBusinessDay(day)
	}

	return Resolution{}, fmt.Errorf("%w: %s, looked back %d business days from %s",
		ErrNoSourceDate, r.ticker, r.maxLookback, res.StoredDate.Format("2006-01-02"))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
