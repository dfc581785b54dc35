package search

import (
	"strings"
	"unicode"
)

// Stop words dropped from extracted location phrases
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "near": true, "around": true,
	"area": true,
}

// Query vocabulary that is never part of a place name
var facetWords = map[string]bool{
	"jobs": true, "job": true, "roles": true, "role": true, "positions": true,
	"position": true, "companies": true, "company": true, "openings": true,
	"startup": true, "startups": true, "established": true, "growth": true,
	"enterprise": true, "seed": true, "series": true, "bootstrapped": true,
	"public": true, "ipo": true, "small": true, "medium": true, "large": true,
	"tiny": true, "big": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// placeKeywords turns a trailing location phrase into keywords.
// "austin, tx or remote startups" yields ["austin", "tx", "remote"].
func placeKeywords(phrase string) []string {
	parts := locationSplitter.Split(phrase, -1)
	var keywords []string
	seen := make(map[string]bool)
	for _, part := range parts {
		words := tokenizeAndFilter(part)
		kept := words[:0]
		for _, w := range words {
			if !facetWords[w] {
				kept = append(kept, w)
			}
		}
		kw := strings.Join(kept, " ")
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return keywords
}

// qualifierLen is the longest keyword treated as a state or country code.
const qualifierLen = 3

// matchesPlace reports whether a resolved location matches any place keyword.
// Keywords of at most qualifierLen characters, such as "ca" or "usa", only
// match a whole word of the location, and are ignored when a longer keyword
// was given: "san francisco, ca" keeps San Francisco and not "Chicago, IL"
// or "Los Angeles, CA".
func matchesPlace(location string, keywords []string) bool {
	var names, qualifiers []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		switch {
		case k == "":
		case len([]rune(k)) <= qualifierLen:
			qualifiers = append(qualifiers, k)
		default:
			names = append(names, k)
		}
	}
	if len(names) > 0 {
		return containsAny(location, names)
	}

	words := strings.FieldsFunc(strings.ToLower(location), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, q := range qualifiers {
			if w == q {
				return true
			}
		}
	}
	return false
}

// containsAny reports whether s contains any of terms, case-insensitively.
func containsAny(s string, terms []string) bool {
	s = strings.ToLower(s)
	for _, t := range terms {
		if t != "" && strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
