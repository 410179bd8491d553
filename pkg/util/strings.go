package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeName is the comparison form of a commodity or market name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MarketBase strips a parenthetical qualifier: "Lasalgaon(Niphad)" -> "lasalgaon".
func MarketBase(market string) string {
	if i := strings.Index(market, "("); i >= 0 {
		market = market[:i]
	}
	return NormalizeName(market)
}
