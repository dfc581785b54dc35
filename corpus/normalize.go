package corpus

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
)

// Fallback values for records missing required fields.
const (
	UntitledPosition = "Untitled Position"
	UnknownCompany   = "Unknown Company"
	RemoteLocation   = "Remote"

	// MaxOverviewLength bounds the overview text in characters, ellipsis included.
	MaxOverviewLength = 1000
)

// Experience levels inferred from job titles.
const (
	LevelEntry  = "entry"
	LevelSenior = "senior"
	LevelLead   = "lead"
)

var (
	listDelimiters = regexp.MustCompile(`[;|•\n\r]+`)

	// Prose keeps its commas: "Experience with Python, Go and SQL" is one item.
	proseMarkers = regexp.MustCompile(`[:!?]|\.(?:\s|$)|\b(?:and|or|with|of|in|to|for|the|a|an|including)\b`)

	leadTitle   = regexp.MustCompile(`\b(staff|principal|lead)\b`)
	seniorTitle = regexp.MustCompile(`\b(senior|sr)\b`)
	entryTitle  = regexp.MustCompile(`\b(intern|internship|entry|junior|jr)\b`)

	usCountries = map[string]bool{
		"":                         true,
		"us":                       true,
		"usa":                      true,
		"u.s.":                     true,
		"u.s.a.":                   true,
		"united states":            true,
		"united states of america": true,
	}
)

// ParseRemote reports whether a raw remote flag is an explicit true.
// Only "true" (any case, surrounding whitespace ignored) is true.
func ParseRemote(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// parseClosed reports whether a raw is_open flag explicitly marks the job closed.
func parseClosed(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "0", "no":
		return true
	}
	return false
}

// SplitList splits a delimited field into trimmed, non-empty items in order.
// Semicolons, pipes, bullets and line breaks always separate items. Commas
// only do when the segment reads as a list rather than a sentence.
func SplitList(raw string) []string {
	parts := listDelimiters.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if proseMarkers.MatchString(strings.ToLower(p)) {
			if p = strings.Trim(p, ", "); p != "" {
				out = append(out, p)
			}
			continue
		}
		for _, item := range strings.Split(p, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// CleanOverview strips HTML markup, collapses whitespace and truncates to
// MaxOverviewLength characters.
func CleanOverview(raw string) string {
	text := raw
	if strings.ContainsAny(text, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > MaxOverviewLength {
		runes := []rune(text)
		text = string(runes[:MaxOverviewLength-3]) + "..."
	}
	return text
}

// FormatLocation renders a location as "City, State", appending the country
// when it is not the US. Placeholder parts such as "Unknown" are dropped.
func FormatLocation(loc core.LocationRecord) string {
	city := cleanPart(loc.City)
	state := cleanPart(loc.State)
	country := cleanPart(loc.Country)

	// The scraper sometimes stored "City, ST" in the city column
	if state == "" && strings.Contains(city, ",") {
		c, s, _ := strings.Cut(city, ",")
		city, state = strings.TrimSpace(c), strings.TrimSpace(s)
	}

	var parts []string
	if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		parts = append(parts, state)
	}
	if !usCountries[strings.ToLower(country)] {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

func cleanPart(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "unknown") || strings.EqualFold(s, "n/a") {
		return ""
	}
	return s
}

// InferExperienceLevel maps title keywords to an experience level.
// The most senior match wins; nil means the title carries no signal.
func InferExperienceLevel(title string) *string {
	t := strings.ToLower(title)
	var level string
	switch {
	case leadTitle.MatchString(t):
		level = LevelLead
	case seniorTitle.MatchString(t):
		level = LevelSenior
	case entryTitle.MatchString(t):
		level = LevelEntry
	default:
		return nil
	}
	return &level
}

// ApplyTags returns the tags of every rule with a term contained in the job's
// title or overview, de-duplicated in rule order.
func ApplyTags(rules []config.TagRule, title, overview string) []string {
	text := strings.ToLower(title + " " + overview)
	seen := make(map[string]bool, len(rules))
	tags := make([]string, 0, len(rules))
	for _, r := range rules {
		if seen[r.Tag] {
			continue
		}
		for _, term := range r.Any {
			if strings.Contains(text, strings.ToLower(term)) {
				seen[r.Tag] = true
				tags = append(tags, r.Tag)
				break
			}
		}
	}
	return tags
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePostedAt parses the created_at column. Unparseable values yield the zero time.
func parsePostedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseSalary builds a salary range from the optional salary columns.
// Returns nil when neither bound is present.
func parseSalary(rawMin, rawMax string) (*core.SalaryRange, error) {
	lo, err := core.ParseCount(rawMin)
	if err != nil {
		return nil, err
	}
	hi, err := core.ParseCount(rawMax)
	if err != nil {
		return nil, err
	}
	if lo == 0 && hi == 0 {
		return nil, nil
	}
	if hi > 0 && lo > hi {
		lo, hi = hi, lo
	}
	return &core.SalaryRange{Min: lo, Max: hi, Currency: "USD"}, nil
}

// normalizeName is the company join key.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
