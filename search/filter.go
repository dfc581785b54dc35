package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/jobsift/core"
)

// Filters are structured constraints supplied by the caller. They are ANDed
// with the facets detected in the query text. Empty fields are inactive.
type Filters struct {
	Locations       []string `json:"locations,omitempty"`
	Industries      []string `json:"industries,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Remote          *bool    `json:"remote,omitempty"`
	SalaryMin       *int     `json:"salary_min,omitempty"`
	SalaryMax       *int     `json:"salary_max,omitempty"`
}

// Validate checks the filters for contradictions.
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	if f.SalaryMin != nil && *f.SalaryMin < 0 {
		return fmt.Errorf("%w: salary_min cannot be negative", ErrInvalidFilters)
	}
	if f.SalaryMax != nil && *f.SalaryMax < 0 {
		return fmt.Errorf("%w: salary_max cannot be negative", ErrInvalidFilters)
	}
	if f.SalaryMin != nil && f.SalaryMax != nil && *f.SalaryMin > *f.SalaryMax {
		return fmt.Errorf("%w: salary_min %d exceeds salary_max %d", ErrInvalidFilters, *f.SalaryMin, *f.SalaryMax)
	}
	return nil
}

// Step records one narrowing stage of a search.
type Step struct {
	Name       string `json:"name"`
	Detail     string `json:"detail"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
	Unresolved int    `json:"unresolved,omitempty"` // candidates kept because the data to judge them was missing
}

type verdict int

const (
	drop verdict = iota
	keep
	unresolved // kept, fail open
)

type filter struct {
	name   string
	detail string
	judge  func(*core.Job) verdict
}

// companyResolver joins a job's employer name to its company record.
type companyResolver interface {
	CompanyFor(name string) (*core.Company, bool)
}

func (f filter) apply(in []core.ScoredJob) ([]core.ScoredJob, Step) {
	step := Step{Name: f.name, Detail: f.detail, Before: len(in)}
	out := make([]core.ScoredJob, 0, len(in))
	for _, sj := range in {
		switch f.judge(sj.Job) {
		case keep:
			out = append(out, sj)
		case unresolved:
			step.Unresolved++
			out = append(out, sj)
		}
	}
	step.After = len(out)
	return out, step
}

// buildFilters returns the active filters in application order:
// location, stage, funding, size, then the caller's filters.
func buildFilters(facets Facets, req *Filters, companies companyResolver) []filter {
	var filters []filter

	if len(facets.Location) > 0 {
		filters = append(filters, locationFilter("location", facets.Location))
	}
	if facets.Stage != "" {
		terms := stageTerms(facets.Stage)
		filters = append(filters, companyFilter("stage", quoteJoin(terms), companies, func(c *core.Company) verdict {
			if c.Stage == "" {
				return unresolved
			}
			return matchVerdict(containsAny(c.Stage, terms))
		}))
	}
	if facets.Funding != "" {
		terms := fundingTerms(facets.Funding)
		filters = append(filters, companyFilter("funding", quoteJoin(terms), companies, func(c *core.Company) verdict {
			if c.Funding == "" {
				return unresolved
			}
			return matchVerdict(containsAny(c.Funding, terms))
		}))
	}
	if facets.Size != "" {
		bucket := facets.Size
		filters = append(filters, companyFilter("size", sizeDetail(bucket), companies, func(c *core.Company) verdict {
			if c.Size <= 0 {
				return unresolved
			}
			return matchVerdict(sizeMatches(bucket, c.Size))
		}))
	}

	if req == nil {
		return filters
	}
	if len(req.Locations) > 0 {
		filters = append(filters, locationFilter("locations", req.Locations))
	}
	if len(req.Industries) > 0 {
		industries := req.Industries
		filters = append(filters, companyFilter("industries", quoteJoin(industries), companies, func(c *core.Company) verdict {
			if c.Industry == "" {
				return unresolved
			}
			return matchVerdict(containsAny(c.Industry, industries))
		}))
	}
	if level := strings.TrimSpace(req.ExperienceLevel); level != "" {
		filters = append(filters, filter{
			name:   "experience",
			detail: fmt.Sprintf("%q", level),
			judge: func(j *core.Job) verdict {
				if j.ExperienceLevel == nil {
					return unresolved
				}
				return matchVerdict(strings.EqualFold(*j.ExperienceLevel, level))
			},
		})
	}
	if req.Remote != nil {
		remote := *req.Remote
		detail := "on-site only"
		if remote {
			detail = "remote only"
		}
		filters = append(filters, filter{
			name:   "remote",
			detail: detail,
			judge:  func(j *core.Job) verdict { return matchVerdict(j.Remote == remote) },
		})
	}
	if req.SalaryMin != nil || req.SalaryMax != nil {
		var lo, hi int
		if req.SalaryMin != nil {
			lo = *req.SalaryMin
		}
		if req.SalaryMax != nil {
			hi = *req.SalaryMax
		}
		filters = append(filters, filter{
			name:   "salary",
			detail: salaryDetail(lo, hi),
			judge: func(j *core.Job) verdict {
				if j.Salary == nil {
					return unresolved
				}
				return matchVerdict(j.Salary.Overlaps(lo, hi))
			},
		})
	}
	return filters
}

func locationFilter(name string, keywords []string) filter {
	return filter{
		name:   name,
		detail: quoteJoin(keywords),
		judge: func(j *core.Job) verdict {
			return matchVerdict(matchesPlace(j.Location, keywords))
		},
	}
}

// companyFilter joins the job to its employer. Jobs whose employer cannot be
// resolved are kept.
func companyFilter(name, detail string, companies companyResolver, judge func(*core.Company) verdict) filter {
	return filter{
		name:   name,
		detail: detail,
		judge: func(j *core.Job) verdict {
			c, ok := companies.CompanyFor(j.Company)
			if !ok {
				return unresolved
			}
			return judge(c)
		},
	}
}

func matchVerdict(ok bool) verdict {
	if ok {
		return keep
	}
	return drop
}

func stageTerms(stage string) []string {
	switch stage {
	case "startup", "seed", "early":
		return []string{"startup", "seed", "early"}
	case "small":
		return []string{"startup", "seed", "growth"}
	case "large", "enterprise", "established":
		return []string{"established", "enterprise", "public", "mature"}
	case "growth":
		return []string{"growth", "scale"}
	default:
		return []string{stage}
	}
}

func fundingTerms(funding string) []string {
	switch funding {
	case "ipo", "public":
		return []string{"public", "ipo"}
	case "bootstrapped":
		return []string{"bootstrapped", "self-funded"}
	default:
		return []string{funding}
	}
}

// sizeMatches evaluates the size buckets independently; "big" and "large"
// overlap between 501 and 1000 employees.
func sizeMatches(bucket string, employees int) bool {
	switch bucket {
	case "tiny":
		return employees <= 50
	case "small":
		return employees <= 200
	case "medium":
		return employees > 200 && employees <= 1000
	case "large":
		return employees > 1000
	case "big":
		return employees > 500
	default:
		return true
	}
}

func sizeDetail(bucket string) string {
	switch bucket {
	case "tiny":
		return "tiny (50 or fewer employees)"
	case "small":
		return "small (200 or fewer employees)"
	case "medium":
		return "medium (201-1000 employees)"
	case "large":
		return "large (more than 1000 employees)"
	case "big":
		return "big (more than 500 employees)"
	default:
		return bucket
	}
}

func salaryDetail(lo, hi int) string {
	switch {
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%d-%d", lo, hi)
	case lo > 0:
		return fmt.Sprintf("at least %d", lo)
	default:
		return fmt.Sprintf("at most %d", hi)
	}
}

func quoteJoin(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, " or ")
}
