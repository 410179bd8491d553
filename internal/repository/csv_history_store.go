package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	applogger "AgriChain/pkg/logger"
	"AgriChain/pkg/util"

	"github.com/shopspring/decimal"
)

var _ domrepo.HistoryStore = (*CSVHistoryStore)(nil)

// Columns names the header fields of the price file.
type Columns struct {
	Commodity string
	Market    string
	Date      string
	Price     string
	MinPrice  string // optional
	MaxPrice  string // optional
}

func DefaultColumns() Columns {
	return Columns{
		Commodity: "Commodity",
		Market:    "Market Name",
		Date:      "Price Date",
		Price:     "Modal_Price",
		MinPrice:  "Min_Price",
		MaxPrice:  "Max_Price",
	}
}

// CSVHistoryStore serves price history from a delimited file. The parsed
// table is cached and re-read once it is older than the reload TTL.
type CSVHistoryStore struct {
	path string
	cols Columns
	ttl  time.Duration
	l    *applogger.Logger
	now  func() time.Time

	mu       sync.RWMutex
	table    *priceTable
	loadedAt time.Time
}

func NewCSVHistoryStore(path string, cols Columns, reloadTTL time.Duration, l *applogger.Logger) *CSVHistoryStore {
	return &CSVHistoryStore{
		path: path,
		cols: cols,
		ttl:  reloadTTL,
		l:    l,
		now:  time.Now,
	}
}

// Load reads and cleans the whole file, replacing the cached table.
func (s *CSVHistoryStore) Load(ctx context.Context) error {
	start := time.Now()
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open price history: %w", err)
	}
	defer f.Close()

	records, dropped, err := parsePriceCSV(ctx, f, s.cols)
	if err != nil {
		return fmt.Errorf("parse price history %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.table = &priceTable{records: records}
	s.loadedAt = s.now()
	s.mu.Unlock()

	s.l.Info("price history loaded",
		applogger.String("path", s.path),
		applogger.Int("rows", len(records)),
		applogger.Int("dropped", dropped),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CSVHistoryStore) current(ctx context.Context) (*priceTable, error) {
	s.mu.RLock()
	t, loadedAt := s.table, s.loadedAt
	s.mu.RUnlock()

	if t != nil && (s.ttl <= 0 || s.now().Sub(loadedAt) < s.ttl) {
		return t, nil
	}
	if err := s.Load(ctx); err != nil {
		if t != nil {
			// keep serving the previous table when a reload fails
			s.l.Warn("price history reload failed", applogger.String("path", s.path), applogger.Error(err))
			return t, nil
		}
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, nil
}

func (s *CSVHistoryStore) Series(ctx context.Context, commodity, market string) ([]models.PricePoint, error) {
	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	pts := t.series(commodity, market)
	if len(pts) < models.MinHistoryRows {
		return nil, models.ErrInsufficientData
	}
	return pts, nil
}

func (s *CSVHistoryStore) Commodities(ctx context.Context) ([]string, error) {
	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return t.commodities(), nil
}

func (s *CSVHistoryStore) Markets(ctx context.Context, commodity string) ([]string, error) {
	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return t.markets(commodity), nil
}

// Quotes lists every market of commodity with its latest and recent average price.
func (s *CSVHistoryStore) Quotes(ctx context.Context, commodity string, recent int) ([]models.MarketQuote, error) {
	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return t.quotes(commodity, recent), nil
}

func (s *CSVHistoryStore) Close() error { return nil }

type columnIndex struct {
	commodity, market, date, price, min, max int
}

func indexColumns(header []string, cols Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	find := func(name string, required bool) (int, error) {
		if i, ok := pos[name]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("missing column %q", name)
		}
		return -1, nil
	}

	var idx columnIndex
	var err error
	if idx.commodity, err = find(cols.Commodity, true); err != nil {
		return idx, err
	}
	if idx.market, err = find(cols.Market, true); err != nil {
		return idx, err
	}
	if idx.date, err = find(cols.Date, true); err != nil {
		return idx, err
	}
	if idx.price, err = find(cols.Price, true); err != nil {
		return idx, err
	}
	idx.min, _ = find(cols.MinPrice, false)
	idx.max, _ = find(cols.MaxPrice, false)
	return idx, nil
}

// parsePriceCSV returns the rows that have a usable date and a positive
// modal price, and how many were dropped.
func parsePriceCSV(ctx context.Context, r io.Reader, cols Columns) ([]models.PriceRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("empty file")
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := indexColumns(header, cols)
	if err != nil {
		return nil, 0, err
	}

	var (
		out     []models.PriceRecord
		dropped int
		line    int
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				dropped++
				continue
			}
			return nil, 0, fmt.Errorf("read row %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		rec, ok := parseRow(row, idx)
		if !ok {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped, nil
}

func parseRow(row []string, idx columnIndex) (models.PriceRecord, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	price, err := decimal.NewFromString(field(idx.price))
	if err != nil || !price.IsPositive() {
		return models.PriceRecord{}, false
	}
	date, ok := util.ParseDayFirst(field(idx.date))
	if !ok {
		return models.PriceRecord{}, false
	}

	return models.PriceRecord{
		Commodity: field(idx.commodity),
		Market:    field(idx.market),
		Date:      date,
		Price:     price,
		MinPrice:  optionalDecimal(field(idx.min)),
		MaxPrice:  optionalDecimal(field(idx.max)),
	}, true
}

func optionalDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
