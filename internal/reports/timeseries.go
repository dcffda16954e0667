// internal/reports/timeseries.go
package reports

import (
	"time"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// DayBucket is one calendar day's aggregate in the reporting timezone.
type DayBucket struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	ResponseCount  int     `json:"response_count"`
	MentionCount   int     `json:"mention_count"`
	MentionRate    float64 `json:"mention_rate"`
	FirstThirdRate float64 `json:"first_third_rate"`
	PositiveRate   float64 `json:"positive_rate"`
}

// TimeSeries is the day-bucketed report with its trend classification.
type TimeSeries struct {
	Days        int         `json:"days"`
	Buckets     []DayBucket `json:"buckets"`
	Trend       string      `json:"trend"`
	TrendChange float64     `json:"trend_change"`
}

// ComputeTimeSeries buckets rows by calendar day in loc over the trailing
// days window ending at now. Every day in the window gets a bucket, empty
// days included. The trend compares the most recent bucket's mention rate
// against the window's first bucket, with deltas under one percentage point
// reading as flat.
func ComputeTimeSeries(rows []*models.AnalyzedResponse, days int, loc *time.Location, now time.Time) TimeSeries {
	if days < 1 {
		days = 1
	}

	type tally struct {
		total      int
		mentions   int
		firstThird int
		positive   int
	}

	today := now.In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(days - 1))

	tallies := make(map[string]*tally, days)
	for _, row := range rows {
		day := row.CreatedAt.In(loc)
		if day.Before(start) {
			continue
		}
		key := day.Format("2006-01-02")
		t, ok := tallies[key]
		if !ok {
			t = &tally{}
			tallies[key] = t
		}
		t.total++
		if row.BrandMentioned {
			t.mentions++
			if row.BrandPosition == models.PositionFirstThird {
				t.firstThird++
			}
			if row.BrandContext == models.ContextPositive {
				t.positive++
			}
		}
	}

	series := TimeSeries{Days: days, Trend: TrendFlat}
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		bucket := DayBucket{Date: key}
		if t, ok := tallies[key]; ok {
			bucket.ResponseCount = t.total
			bucket.MentionCount = t.mentions
			bucket.MentionRate = rate(t.mentions, t.total)
			bucket.FirstThirdRate = rate(t.firstThird, t.mentions)
			bucket.PositiveRate = rate(t.positive, t.mentions)
		}
		series.Buckets = append(series.Buckets, bucket)
	}

	series.Trend, series.TrendChange = classifyTrend(series.Buckets)
	return series
}

// classifyTrend compares the last non-empty bucket against the first
// non-empty one.
func classifyTrend(buckets []DayBucket) (string, float64) {
	first, last := -1, -1
	for i, b := range buckets {
		if b.ResponseCount == 0 {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}
	if first == -1 || first == last {
		return TrendFlat, 0
	}

	change := round1(buckets[last].MentionRate - buckets[first].MentionRate)
	switch {
	case change > trendDeadBand:
		return TrendUp, change
	case change < -trendDeadBand:
		return TrendDown, change
	default:
		return TrendFlat, change
	}
}
