// internal/reports/gaps.go
package reports

import (
	"sort"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// GapEntry is one query's gap categorization, OR-ed across its responses.
type GapEntry struct {
	RunQueryID           uuid.UUID `json:"run_query_id"`
	QueryText            string    `json:"query_text"`
	Branded              bool      `json:"branded"`
	Category             string    `json:"category"`
	BrandMentioned       bool      `json:"brand_mentioned"`
	CompetitorsMentioned []string  `json:"competitors_mentioned"`
	ResponseCount        int       `json:"response_count"`
}

// GapReport is the per-query gap breakdown plus category totals.
type GapReport struct {
	Entries []GapEntry     `json:"entries"`
	Counts  map[string]int `json:"counts"`
}

// ComputeGaps categorizes every query with at least one eligible response.
// A competitor counts as mentioned when any response for the query mentions
// it.
func ComputeGaps(rows []*models.AnalyzedResponse) GapReport {
	type queryState struct {
		entry       GapEntry
		competitors map[string]struct{}
	}

	order := make([]uuid.UUID, 0)
	byQuery := make(map[uuid.UUID]*queryState)
	for _, row := range rows {
		state, ok := byQuery[row.RunQueryID]
		if !ok {
			state = &queryState{
				entry: GapEntry{
					RunQueryID: row.RunQueryID,
					QueryText:  row.QueryText,
					Branded:    row.Branded,
				},
				competitors: make(map[string]struct{}),
			}
			byQuery[row.RunQueryID] = state
			order = append(order, row.RunQueryID)
		}
		state.entry.ResponseCount++
		if row.BrandMentioned {
			state.entry.BrandMentioned = true
		}
		for _, m := range row.CompetitorMentions {
			state.competitors[m.Name] = struct{}{}
		}
	}

	report := GapReport{
		Counts: map[string]int{
			GapExclusiveWin: 0,
			GapCriticalGap:  0,
			GapCompetitive:  0,
			GapBlueOcean:    0,
		},
	}
	for _, id := range order {
		state := byQuery[id]
		for name := range state.competitors {
			state.entry.CompetitorsMentioned = append(state.entry.CompetitorsMentioned, name)
		}
		sort.Strings(state.entry.CompetitorsMentioned)

		state.entry.Category = categorize(state.entry.BrandMentioned, len(state.competitors) > 0)
		report.Counts[state.entry.Category]++
		report.Entries = append(report.Entries, state.entry)
	}
	return report
}

func categorize(brandMentioned, competitorMentioned bool) string {
	switch {
	case brandMentioned && !competitorMentioned:
		return GapExclusiveWin
	case !brandMentioned && competitorMentioned:
		return GapCriticalGap
	case brandMentioned && competitorMentioned:
		return GapCompetitive
	default:
		return GapBlueOcean
	}
}

// WinLossTally counts queries per gap category at query granularity.
type WinLossTally struct {
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	Ties    int `json:"ties"`
	Neither int `json:"neither"`
}

// ComputeWinLoss reduces the gap report to a win/loss tally: exclusive wins
// are wins, critical gaps are losses, competitive queries are ties.
func ComputeWinLoss(rows []*models.AnalyzedResponse) WinLossTally {
	gaps := ComputeGaps(rows)
	return WinLossTally{
		Wins:    gaps.Counts[GapExclusiveWin],
		Losses:  gaps.Counts[GapCriticalGap],
		Ties:    gaps.Counts[GapCompetitive],
		Neither: gaps.Counts[GapBlueOcean],
	}
}
