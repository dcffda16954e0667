// internal/analyzer/matcher.go
package analyzer

import (
	"sort"
	"strings"
	"unicode"
)

// Entity is a canonical name plus its alias list. Matching runs against the
// full term set but results are always reported under the canonical name.
type Entity struct {
	Name    string
	Aliases []string
}

// Terms returns the deduplicated search term set for the entity.
func (e Entity) Terms() []string {
	seen := make(map[string]struct{}, len(e.Aliases)+1)
	terms := make([]string, 0, len(e.Aliases)+1)
	for _, t := range append([]string{e.Name}, e.Aliases...) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// Match is one occurrence of an entity term in the text.
type Match struct {
	Entity string // canonical entity name
	Term   string // the term that matched
	Offset int    // byte offset of the match start
	Length int    // byte length of the matched text
}

// MatchEntities finds every whole-word, case-insensitive occurrence of every
// entity's terms in text. Overlapping candidates are resolved by preferring
// the longest term starting earliest, so a short term nested inside a longer
// matched term (brand "Corp" inside competitor "Plastics Corp") never
// produces a second, spurious match.
func MatchEntities(text string, entities []Entity) []Match {
	lower := strings.ToLower(text)

	var candidates []Match
	for _, e := range entities {
		for _, term := range e.Terms() {
			for _, offset := range findWholeWord(lower, strings.ToLower(term)) {
				candidates = append(candidates, Match{
					Entity: e.Name,
					Term:   term,
					Offset: offset,
					Length: len(term),
				})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Offset != candidates[j].Offset {
			return candidates[i].Offset < candidates[j].Offset
		}
		return candidates[i].Length > candidates[j].Length
	})

	var matches []Match
	coveredEnd := 0
	for _, c := range candidates {
		if c.Offset < coveredEnd {
			continue
		}
		matches = append(matches, c)
		coveredEnd = c.Offset + c.Length
	}
	return matches
}

// EarliestOffsets consolidates matches to one earliest offset per entity.
func EarliestOffsets(matches []Match) map[string]int {
	earliest := make(map[string]int)
	for _, m := range matches {
		if cur, ok := earliest[m.Entity]; !ok || m.Offset < cur {
			earliest[m.Entity] = m.Offset
		}
	}
	return earliest
}

// findWholeWord returns the start offsets where term occurs in text without
// being part of a larger word. Both arguments must already be lowercased.
// A boundary is anything that is not a letter or digit, so "Acme-grade"
// still yields a match for "acme".
func findWholeWord(text, term string) []int {
	if term == "" {
		return nil
	}

	var offsets []int
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			break
		}
		offset := start + idx
		if isWordBoundary(text, offset, offset+len(term)) {
			offsets = append(offsets, offset)
		}
		start = offset + 1
	}
	return offsets
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r := previousRune(text, start)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r := runeAt(text, end)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func previousRune(text string, pos int) rune {
	r := rune(text[pos-1])
	if r < 0x80 {
		return r
	}
	runes := []rune(text[:pos])
	return runes[len(runes)-1]
}

func runeAt(text string, pos int) rune {
	for _, r := range text[pos:] {
		return r
	}
	return 0
}
