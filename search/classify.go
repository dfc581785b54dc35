package search

import (
	"regexp"
	"strings"
)

var (
	locationPattern  = regexp.MustCompile(`\b(?:in|at|near|around|from)\s+(.+)$`)
	locationSplitter = regexp.MustCompile(`\s*(?:,|/|;|\b(?:or|and|in|at|near|around|from)\b)\s*`)

	stagePattern   = regexp.MustCompile(`\b(startup|established|growth|small|large|enterprise)s?\b`)
	fundingPattern = regexp.MustCompile(`\b(seed|series [abc]|bootstrapped|public|ipo)\b`)
	sizePattern    = regexp.MustCompile(`\b(small|medium|large|tiny|big)\b`)
	broadPattern   = regexp.MustCompile(`\bengineer(?:s|ing)?\b`)
	narrowPattern  = regexp.MustCompile(`\bpython\b|\bmachine learning\b`)
)

// Facets are the query attributes that change filtering behavior.
// The zero value means no facet was detected.
type Facets struct {
	Query            string   `json:"query"`
	Location         []string `json:"location,omitempty"` // lowercased keywords, OR semantics
	Stage            string   `json:"stage,omitempty"`
	Funding          string   `json:"funding,omitempty"`
	Size             string   `json:"size,omitempty"`
	BroadEngineering bool     `json:"broad_engineering"`
	NarrowTechnical  bool     `json:"narrow_technical"`
}

// Structured reports whether any company or location facet was detected.
func (f Facets) Structured() bool {
	return len(f.Location) > 0 || f.Stage != "" || f.Funding != "" || f.Size != ""
}

// Classify detects facets in a free-text query. It is a pure function.
func Classify(query string) Facets {
	q := strings.ToLower(strings.TrimSpace(query))
	f := Facets{Query: query}

	if m := locationPattern.FindStringSubmatch(q); m != nil {
		f.Location = placeKeywords(m[1])
	}
	if m := stagePattern.FindStringSubmatch(q); m != nil {
		f.Stage = m[1]
	}
	if m := fundingPattern.FindStringSubmatch(q); m != nil {
		f.Funding = m[1]
	}
	if m := sizePattern.FindStringSubmatch(q); m != nil {
		f.Size = m[1]
	}
	f.BroadEngineering = broadPattern.MatchString(q)
	f.NarrowTechnical = narrowPattern.MatchString(q)
	return f
}

// Policy is the similarity threshold and result cap chosen for a query.
type Policy struct {
	Threshold float64  `json:"threshold"`
	Cap       int      `json:"cap"`
	Rules     []string `json:"rules"` // names of the rules that applied, in order
}

type policyRule struct {
	name      string
	applies   func(Facets) bool
	threshold float64
	cap       int // 0 leaves the cap unchanged
}

// Evaluated in order; a later rule overrides the fields it sets.
var policyRules = []policyRule{
	{
		name:      "default",
		applies:   func(Facets) bool { return true },
		threshold: 0.10,
		cap:       50,
	},
	{
		name:      "broad-engineering",
		applies:   func(f Facets) bool { return f.BroadEngineering },
		threshold: 0.05,
		cap:       75,
	},
	{
		name:      "narrow-technical",
		applies:   func(f Facets) bool { return f.NarrowTechnical },
		threshold: 0.15,
	},
	{
		name:      "structured",
		applies:   Facets.Structured,
		threshold: 0.20,
		cap:       25,
	},
}

// Policy evaluates the threshold and cap rules against the facets.
func (f Facets) Policy() Policy {
	var p Policy
	for _, rule := range policyRules {
		if !rule.applies(f) {
			continue
		}
		p.Threshold = rule.threshold
		if rule.cap > 0 {
			p.Cap = rule.cap
		}
		p.Rules = append(p.Rules, rule.name)
	}
	return p
}
