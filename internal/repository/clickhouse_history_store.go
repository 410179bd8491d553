package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	pkgch "AgriChain/pkg/clickhouse"
	applogger "AgriChain/pkg/logger"
	"AgriChain/pkg/util"

	"github.com/shopspring/decimal"
)

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)

// CHHistoryStore implements HistoryStore backed by a ClickHouse table with
// columns commodity, market, price_date, modal_price, min_price, max_price.
type CHHistoryStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHHistoryStore {
	return &CHHistoryStore{client: ch, db: ch.DB(), table: table, l: l}
}

// Schema returns the statements that create the history table.
func (s *CHHistoryStore) Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            commodity   LowCardinality(String),
            market      LowCardinality(String),
            price_date  Date,
            modal_price Decimal(12, 2),
            min_price   Nullable(Decimal(12, 2)),
            max_price   Nullable(Decimal(12, 2))
        ) ENGINE = MergeTree ORDER BY (commodity, market, price_date)`, s.table),
	}
}

// Load checks the table is reachable; rows are queried per pair.
func (s *CHHistoryStore) Load(ctx context.Context) error {
	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s", s.table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return fmt.Errorf("clickhouse history: %w", err)
	}
	s.l.Info("clickhouse price history ready", applogger.String("table", s.table), applogger.Int64("rows", int64(n)))
	return nil
}

const seriesColumns = `toString(commodity), toString(market), price_date,
        toString(modal_price), ifNull(toString(min_price), ''), ifNull(toString(max_price), '')`

func (s *CHHistoryStore) Series(ctx context.Context, commodity, market string) ([]models.PricePoint, error) {
	start := time.Now()
	c := util.NormalizeName(commodity)

	exact := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE lower(trimBoth(commodity)) = ? AND lower(trimBoth(market)) = ? AND modal_price > 0
        ORDER BY price_date ASC
    `, seriesColumns, s.table)
	recs, err := s.query(ctx, exact, c, util.NormalizeName(market))
	if err != nil {
		return nil, err
	}

	if len(recs) < models.MinHistoryRows {
		if base := util.MarketBase(market); base != "" {
			fuzzy := fmt.Sprintf(`
                SELECT %s
                FROM %s
                WHERE lower(trimBoth(commodity)) = ? AND positionCaseInsensitive(market, ?) > 0 AND modal_price > 0
                ORDER BY price_date ASC
            `, seriesColumns, s.table)
			if recs, err = s.query(ctx, fuzzy, c, base); err != nil {
				return nil, err
			}
		}
	}

	s.l.Debug("clickhouse series ok",
		applogger.String("commodity", commodity),
		applogger.String("market", market),
		applogger.Int("rows", len(recs)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	if len(recs) < models.MinHistoryRows {
		return nil, models.ErrInsufficientData
	}
	t := priceTable{records: recs}
	return t.series(commodity, market), nil
}

func (s *CHHistoryStore) query(ctx context.Context, q string, args ...any) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse series query error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []models.PriceRecord
	for rows.Next() {
		var (
			r                 models.PriceRecord
			price, minP, maxP string
		)
		if err := rows.Scan(&r.Commodity, &r.Market, &r.Date, &price, &minP, &maxP); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			continue
		}
		r.Price = p
		r.Date = util.Day(r.Date)
		r.MinPrice = optionalDecimal(minP)
		r.MaxPrice = optionalDecimal(maxP)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHHistoryStore) Commodities(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT toString(commodity) AS c FROM %s ORDER BY c", s.table)
	return s.strings(ctx, q)
}

func (s *CHHistoryStore) Markets(ctx context.Context, commodity string) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT toString(market) AS m FROM %s
        WHERE lower(trimBoth(commodity)) = ? ORDER BY m`, s.table)
	return s.strings(ctx, q, util.NormalizeName(commodity))
}

func (s *CHHistoryStore) strings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Quotes reads only the newest recent rows per market, so MarketQuote.Rows
// is capped at recent for this backend.
func (s *CHHistoryStore) Quotes(ctx context.Context, commodity string, recent int) ([]models.MarketQuote, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE lower(trimBoth(commodity)) = ? AND modal_price > 0
        ORDER BY market, price_date DESC
        LIMIT ? BY market
    `, seriesColumns, s.table)
	recs, err := s.query(ctx, q, util.NormalizeName(commodity), recent)
	if err != nil {
		return nil, err
	}
	t := priceTable{records: recs}
	return t.quotes(commodity, recent), nil
}

func (s *CHHistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.client.Close()
}
