// internal/reports/summary.go
package reports

import (
	"sort"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Summary is the headline visibility report for a set of responses.
type Summary struct {
	TotalResponses      int            `json:"total_responses"`
	MentionCount        int            `json:"mention_count"`
	OverallMentionRate  float64        `json:"overall_mention_rate"`
	FirstThirdRate      float64        `json:"first_third_rate"`
	PositiveContextRate float64        `json:"positive_context_rate"`
	PositionCounts      map[string]int `json:"position_counts"`
	ContextCounts       map[string]int `json:"context_counts"`
}

// ProviderMentionRate is one provider's slice of the summary.
type ProviderMentionRate struct {
	Provider       string  `json:"provider"`
	TotalResponses int     `json:"total_responses"`
	MentionCount   int     `json:"mention_count"`
	MentionRate    float64 `json:"mention_rate"`
}

// FilterRows keeps only rows matching the branded filter.
func FilterRows(rows []*models.AnalyzedResponse, filter string) []*models.AnalyzedResponse {
	if filter == FilterAll || filter == "" {
		return rows
	}
	wantBranded := filter == FilterBranded
	var out []*models.AnalyzedResponse
	for _, row := range rows {
		if row.Branded == wantBranded {
			out = append(out, row)
		}
	}
	return out
}

// ComputeSummary aggregates the overall mention, position and context rates.
// First-third and positive-context rates are conditioned on mentioned
// responses only.
func ComputeSummary(rows []*models.AnalyzedResponse) Summary {
	summary := Summary{
		PositionCounts: make(map[string]int),
		ContextCounts:  make(map[string]int),
	}

	firstThird := 0
	positive := 0
	for _, row := range rows {
		summary.TotalResponses++
		if !row.BrandMentioned {
			continue
		}
		summary.MentionCount++
		summary.PositionCounts[row.BrandPosition]++
		summary.ContextCounts[row.BrandContext]++
		if row.BrandPosition == models.PositionFirstThird {
			firstThird++
		}
		if row.BrandContext == models.ContextPositive {
			positive++
		}
	}

	summary.OverallMentionRate = rate(summary.MentionCount, summary.TotalResponses)
	summary.FirstThirdRate = rate(firstThird, summary.MentionCount)
	summary.PositiveContextRate = rate(positive, summary.MentionCount)
	return summary
}

// ComputeMentionRatesByProvider groups the mention rate by provider, sorted
// by provider name.
func ComputeMentionRatesByProvider(rows []*models.AnalyzedResponse) []ProviderMentionRate {
	type tally struct {
		total    int
		mentions int
	}
	byProvider := make(map[string]*tally)
	for _, row := range rows {
		t, ok := byProvider[row.Provider]
		if !ok {
			t = &tally{}
			byProvider[row.Provider] = t
		}
		t.total++
		if row.BrandMentioned {
			t.mentions++
		}
	}

	out := make([]ProviderMentionRate, 0, len(byProvider))
	for provider, t := range byProvider {
		out = append(out, ProviderMentionRate{
			Provider:       provider,
			TotalResponses: t.total,
			MentionCount:   t.mentions,
			MentionRate:    rate(t.mentions, t.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
