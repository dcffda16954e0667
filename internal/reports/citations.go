// internal/reports/citations.go
package reports

import (
	"sort"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// DomainCount is one cited domain with its occurrence count.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// CitationReport summarizes URL citations over a set of responses.
type CitationReport struct {
	TotalResponses    int           `json:"total_responses"`
	CitedResponses    int           `json:"cited_responses"`
	CitationRate      float64       `json:"citation_rate"`
	BrandCitationRate float64       `json:"brand_citation_rate"`
	TopDomains        []DomainCount `json:"top_domains"`
}

// topDomainLimit caps the domain ranking.
const topDomainLimit = 20

// ComputeCitations derives the citation rollup: how many responses cite at
// least one URL, how many cite a brand domain, and which domains dominate.
func ComputeCitations(rows []*models.AnalyzedResponse) CitationReport {
	report := CitationReport{TotalResponses: len(rows)}

	brandCited := 0
	domainCounts := make(map[string]int)
	for _, row := range rows {
		if len(row.Citations) == 0 {
			continue
		}
		report.CitedResponses++
		hasBrand := false
		for _, c := range row.Citations {
			domainCounts[c.Domain]++
			if c.IsBrandDomain {
				hasBrand = true
			}
		}
		if hasBrand {
			brandCited++
		}
	}

	report.CitationRate = rate(report.CitedResponses, report.TotalResponses)
	report.BrandCitationRate = rate(brandCited, report.TotalResponses)

	for domain, count := range domainCounts {
		report.TopDomains = append(report.TopDomains, DomainCount{Domain: domain, Count: count})
	}
	sort.Slice(report.TopDomains, func(i, j int) bool {
		if report.TopDomains[i].Count != report.TopDomains[j].Count {
			return report.TopDomains[i].Count > report.TopDomains[j].Count
		}
		return report.TopDomains[i].Domain < report.TopDomains[j].Domain
	})
	if len(report.TopDomains) > topDomainLimit {
		report.TopDomains = report.TopDomains[:topDomainLimit]
	}
	return report
}
