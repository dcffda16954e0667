// internal/analyzer/analyzer.go
//
// Package analyzer holds the deterministic text analysis used to derive
// visibility data from raw provider responses: whole-word alias matching,
// position bucketing, lexicon-based context classification, and citation
// extraction. Everything in this package is a pure function of its inputs so
// an analysis can always be re-derived from the stored response text.
package analyzer

import (
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Input is everything needed to analyze one response text.
type Input struct {
	Text         string
	Brand        Entity
	Competitors  []Entity
	BrandDomains []string
}

// CompetitorResult is one competitor's outcome for a single response.
type CompetitorResult struct {
	Name        string
	Position    string
	Context     string
	FirstOffset int
}

// Result is the full analysis of one response text.
type Result struct {
	BrandMentioned   bool
	BrandPosition    string
	BrandContext     string
	BrandFirstOffset *int
	Competitors      []CompetitorResult
	Citations        []ExtractedCitation
}

// Analyze runs the full pipeline for one response. Competitors that are not
// mentioned do not appear in the result.
func Analyze(in Input) Result {
	result := Result{
		BrandPosition: models.PositionNotMentioned,
		BrandContext:  models.ContextNotMentioned,
		Citations:     ExtractCitations(in.Text, in.BrandDomains),
	}
	if in.Text == "" {
		return result
	}

	entities := append([]Entity{in.Brand}, in.Competitors...)
	matches := MatchEntities(in.Text, entities)
	earliest := EarliestOffsets(matches)

	if offset, ok := earliest[in.Brand.Name]; ok {
		result.BrandMentioned = true
		result.BrandPosition = PositionBucket(offset, len(in.Text))
		result.BrandContext = ClassifyContext(in.Text, offset)
		result.BrandFirstOffset = &offset
	}

	for _, comp := range in.Competitors {
		offset, ok := earliest[comp.Name]
		if !ok {
			continue
		}
		result.Competitors = append(result.Competitors, CompetitorResult{
			Name:        comp.Name,
			Position:    PositionBucket(offset, len(in.Text)),
			Context:     ClassifyContext(in.Text, offset),
			FirstOffset: offset,
		})
	}

	return result
}

// IsBrandedQuery reports whether the query text itself references the brand,
// checked once at submission via case-insensitive substring against the
// brand's full term set.
func IsBrandedQuery(queryText string, brand Entity) bool {
	lower := strings.ToLower(queryText)
	for _, term := range brand.Terms() {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
