// internal/reports/leaderboard.go
package reports

import (
	"sort"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Standing is one entity's row in the competitor leaderboard.
type Standing struct {
	Name         string  `json:"name"`
	IsBrand      bool    `json:"is_brand"`
	MentionCount int     `json:"mention_count"`
	MentionRate  float64 `json:"mention_rate"`
}

// ComputeLeaderboard ranks the brand and every competitor by mention rate
// over the eligible responses. Competitors with zero mentions still appear.
// Sort order: mention_rate descending, then mention_count, then name
// ascending for determinism.
func ComputeLeaderboard(rows []*models.AnalyzedResponse, brandName string, competitorNames []string) []Standing {
	total := len(rows)

	brandMentions := 0
	competitorMentions := make(map[string]int, len(competitorNames))
	for _, name := range competitorNames {
		competitorMentions[name] = 0
	}

	for _, row := range rows {
		if row.BrandMentioned {
			brandMentions++
		}
		seen := make(map[string]struct{}, len(row.CompetitorMentions))
		for _, m := range row.CompetitorMentions {
			// one mention per response per competitor
			if _, dup := seen[m.Name]; dup {
				continue
			}
			seen[m.Name] = struct{}{}
			competitorMentions[m.Name]++
		}
	}

	standings := make([]Standing, 0, len(competitorMentions)+1)
	standings = append(standings, Standing{
		Name:         brandName,
		IsBrand:      true,
		MentionCount: brandMentions,
		MentionRate:  rate(brandMentions, total),
	})
	for name, count := range competitorMentions {
		standings = append(standings, Standing{
			Name:         name,
			MentionCount: count,
			MentionRate:  rate(count, total),
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.MentionRate != b.MentionRate {
			return a.MentionRate > b.MentionRate
		}
		if a.MentionCount != b.MentionCount {
			return a.MentionCount > b.MentionCount
		}
		return a.Name < b.Name
	})
	return standings
}
