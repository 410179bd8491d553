package repository

import (
	"sort"
	"strings"
	"time"

	"AgriChain/internal/domain/models"
	"AgriChain/pkg/util"
)

// priceTable is an immutable in-memory copy of the cleaned price rows.
type priceTable struct {
	records []models.PriceRecord
}

// series filters one pair. Commodity and market match case-insensitively;
// when the exact market yields too few rows, any market containing the
// market's base name (qualifier in parentheses removed) is accepted.
func (t *priceTable) series(commodity, market string) []models.PricePoint {
	c := util.NormalizeName(commodity)
	m := util.NormalizeName(market)

	matched := t.filter(func(r *models.PriceRecord) bool {
		return util.NormalizeName(r.Commodity) == c && util.NormalizeName(r.Market) == m
	})
	if len(matched) < models.MinHistoryRows {
		if base := util.MarketBase(market); base != "" {
			matched = t.filter(func(r *models.PriceRecord) bool {
				return util.NormalizeName(r.Commodity) == c &&
					strings.Contains(util.NormalizeName(r.Market), base)
			})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	out := make([]models.PricePoint, len(matched))
	for i, r := range matched {
		out[i] = r.Point()
	}
	return out
}

func (t *priceTable) filter(keep func(*models.PriceRecord) bool) []models.PriceRecord {
	var out []models.PriceRecord
	for i := range t.records {
		if keep(&t.records[i]) {
			out = append(out, t.records[i])
		}
	}
	return out
}

func (t *priceTable) commodities() []string {
	return distinct(t.records, func(r *models.PriceRecord) (string, bool) { return r.Commodity, true })
}

func (t *priceTable) markets(commodity string) []string {
	c := util.NormalizeName(commodity)
	return distinct(t.records, func(r *models.PriceRecord) (string, bool) {
		return r.Market, util.NormalizeName(r.Commodity) == c
	})
}

// quotes summarizes each market trading commodity: latest price and the
// average of its most recent rows.
func (t *priceTable) quotes(commodity string, recent int) []models.MarketQuote {
	c := util.NormalizeName(commodity)
	byMarket := make(map[string][]models.PriceRecord)
	for _, r := range t.records {
		if util.NormalizeName(r.Commodity) == c {
			byMarket[r.Market] = append(byMarket[r.Market], r)
		}
	}

	out := make([]models.MarketQuote, 0, len(byMarket))
	for market, rows := range byMarket {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
		out = append(out, quoteOf(market, rows, recent))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out
}

func quoteOf(market string, rows []models.PriceRecord, recent int) models.MarketQuote {
	last := rows[len(rows)-1]
	window := rows[max(0, len(rows)-recent):]
	var sum float64
	for _, r := range window {
		sum += r.Price.InexactFloat64()
	}
	return models.MarketQuote{
		Market:       market,
		LatestPrice:  last.Price.InexactFloat64(),
		AveragePrice: sum / float64(len(window)),
		LatestDate:   last.Date.Format(time.DateOnly),
		Rows:         len(rows),
	}
}

func distinct(records []models.PriceRecord, pick func(*models.PriceRecord) (string, bool)) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range records {
		v, ok := pick(&records[i])
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
