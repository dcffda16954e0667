// internal/reports/reports.go
//
// Package reports holds the stateless read-side aggregations computed over
// analyzed responses. Every function is a pure computation over the rows it
// is handed; nothing here touches the database.
package reports

import "math"

// Branded filters restrict aggregation to branded or non-branded queries.
const (
	FilterAll        = "all"
	FilterBranded    = "branded"
	FilterNonBranded = "non_branded"
)

// Gap categories. A query with at least one eligible response falls into
// exactly one.
const (
	GapExclusiveWin = "exclusive_win"
	GapCriticalGap  = "critical_gap"
	GapCompetitive  = "competitive"
	GapBlueOcean    = "blue_ocean"
)

// Trend classifications for time-series.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// trendDeadBand is the percentage-point delta at or below which a trend
// reads as flat.
const trendDeadBand = 1.0

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// rate returns n/d as a percentage rounded to one decimal, 0 when d is 0.
func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round1(float64(n) / float64(d) * 100)
}

// ValidFilter reports whether f names a known branded filter.
func ValidFilter(f string) bool {
	return f == FilterAll || f == FilterBranded || f == FilterNonBranded
}
