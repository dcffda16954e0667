// internal/analyzer/citations.go
package analyzer

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// multiPartTLDs are second-level public suffixes where the registrable domain
// keeps three labels instead of two (example.co.uk, not co.uk).
var multiPartTLDs = map[string]struct{}{
	"co.uk": {}, "org.uk": {}, "gov.uk": {}, "ac.uk": {},
	"com.au": {}, "net.au": {}, "org.au": {},
	"co.jp": {}, "co.nz": {}, "co.in": {}, "com.br": {},
}

// ExtractedCitation is one URL found in response text.
type ExtractedCitation struct {
	URL           string
	Domain        string
	IsBrandDomain bool
}

// ExtractCitations scans text for URLs, normalizes each to its registrable
// domain, and flags URLs on (or under) any of the brand's own domains.
func ExtractCitations(text string, brandDomains []string) []ExtractedCitation {
	normalizedBrand := make([]string, 0, len(brandDomains))
	for _, d := range brandDomains {
		if nd := NormalizeDomain(d); nd != "" {
			normalizedBrand = append(normalizedBrand, nd)
		}
	}

	var citations []ExtractedCitation
	for _, raw := range urlPattern.FindAllString(text, -1) {
		cleaned := strings.TrimRight(raw, ".,;:!?")
		domain := NormalizeDomain(cleaned)
		if domain == "" {
			continue
		}
		citations = append(citations, ExtractedCitation{
			URL:           cleaned,
			Domain:        domain,
			IsBrandDomain: matchesBrandDomain(domain, normalizedBrand),
		})
	}
	return citations
}

// NormalizeDomain reduces a URL or bare host to its registrable domain:
// lowercased, no scheme, no www prefix, no port, collapsed to the last two
// labels (three for known second-level public suffixes).
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	host := raw
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Hostname() == "" {
			return ""
		}
		host = parsed.Hostname()
	} else {
		// Bare host, possibly with a path or port attached
		if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
			host = host[:idx]
		}
		if idx := strings.LastIndex(host, ":"); idx >= 0 && !strings.Contains(host, "]") {
			host = host[:idx]
		}
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}

	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := multiPartTLDs[lastTwo]; ok {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

// matchesBrandDomain reports whether domain equals, or is a subdomain of, any
// of the brand's registrable domains.
func matchesBrandDomain(domain string, brandDomains []string) bool {
	for _, brand := range brandDomains {
		if domain == brand || strings.HasSuffix(domain, "."+brand) {
			return true
		}
	}
	return false
}
