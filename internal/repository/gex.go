package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantops/oratsfeed/internal/models"
)

var rowColumns = []string{
	"ticker", "trade_date", "expir_date", "dte", "strike", "stock_price",
	"call_oi", "put_oi", "gamma", "gex_call", "gex_put",
	"short_rate", "div_yield", "discounted_strike",
}

// GexRepo owns the orats_oi_gamma table and its downstream aggregate view.
type GexRepo struct {
	pool *pgxpool.Pool
}

func NewGexRepo(pool *pgxpool.Pool) *GexRepo {
	return &GexRepo{pool: pool}
}

// ReplacePartition swaps out all rows for (ticker, storedDate) in one
// transaction: delete, then bulk insert. A crash mid-way leaves the previous
// partition intact. An empty rows argument is a no-op — the delete is skipped
// so a run that legitimately produced nothing cannot destroy an earlier
// successful write.
func (r *GexRepo) ReplacePartition(ctx context.Context, ticker string, storedDate time.Time, rows []models.DerivedRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM orats_oi_gamma WHERE ticker = $1 AND trade_date = $2`,
		ticker, storedDate,
	); err != nil {
		return fmt.Errorf("delete partition: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"orats_oi_gamma"},
		rowColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				row.Ticker, row.TradeDate, row.ExpirDate, row.DTE, row.Strike, row.StockPrice,
				row.CallOI, row.PutOI, row.Gamma, row.GexCall, row.GexPut,
				row.ShortRate, row.DivYield, row.DiscountedStrike,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert partition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RefreshAggregate rebuilds the by-expiration materialized view. The raw
// partition is authoritative; callers log a failure here without rolling
// anything back.
func (r *GexRepo) RefreshAggregate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW orats_gex_by_exp`)
	if err != nil {
		return fmt.Errorf("refresh orats_gex_by_exp: %w", err)
	}
	return nil
}

// PartitionCount returns how many rows exist for (ticker, storedDate).
func (r *GexRepo) PartitionCount(ctx context.Context, ticker string, storedDate time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orats_oi_gamma WHERE ticker = $1 AND trade_date = $2`,
		ticker, storedDate,
	).Scan(&count)
	return count, err
}
