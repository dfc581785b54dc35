package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
)

// MaxCompanies is the number of employer summaries attached to a response.
const MaxCompanies = 3

// JobResult is a ranked job as returned to callers. Fields the corpus does
// not carry are null unless placeholders are enabled.
type JobResult struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Company         string            `json:"company"`
	Location        string            `json:"location"`
	Remote          bool              `json:"remote"`
	Description     string            `json:"description"`
	Requirements    []string          `json:"requirements"`
	Preferred       []string          `json:"preferred,omitempty"`
	Benefits        []string          `json:"benefits"`
	PostedDate      string            `json:"postedDate,omitempty"`
	Salary          *core.SalaryRange `json:"salary"`
	JobType         *string           `json:"jobType"`
	ExperienceLevel *string           `json:"experienceLevel"`
	Tags            []string          `json:"tags"`
	Score           float64           `json:"score"`
	Rank            int               `json:"rank"`
}

// CompanyResult summarizes an employer represented in the results.
type CompanyResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Size        int    `json:"size"`
	Stage       string `json:"stage,omitempty"`
	Funding     string `json:"funding,omitempty"`
	Founded     int    `json:"founded,omitempty"`
	Location    string `json:"location"`
	Website     string `json:"website"`
}

// Response is the outcome of a successful search.
type Response struct {
	Query       string          `json:"query"`
	Count       int             `json:"count"`
	Jobs        []JobResult     `json:"jobs"`
	Companies   []CompanyResult `json:"companies"`
	Explanation string          `json:"explanation"`
	Confidence  float64         `json:"confidence"`
	Threshold   float64         `json:"threshold"`
	Cap         int             `json:"cap"`
	Facets      Facets          `json:"facets"`
	Steps       []Step          `json:"steps"`
}

func assemble(query string, results []core.ScoredJob, companies companyResolver, facets Facets, policy Policy, steps []Step, placeholders config.Placeholders) *Response {
	resp := &Response{
		Query:     query,
		Count:     len(results),
		Jobs:      make([]JobResult, 0, len(results)),
		Companies: make([]CompanyResult, 0, MaxCompanies),
		Threshold: policy.Threshold,
		Cap:       policy.Cap,
		Facets:    facets,
		Steps:     steps,
	}

	seen := make(map[string]bool)
	for _, sj := range results {
		resp.Jobs = append(resp.Jobs, jobResult(sj, placeholders))

		if len(resp.Companies) >= MaxCompanies {
			continue
		}
		c, ok := companies.CompanyFor(sj.Job.Company)
		if !ok || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		resp.Companies = append(resp.Companies, companyResult(c))
	}

	resp.Confidence = confidence(results)
	resp.Explanation = explain(query, len(results), steps)
	return resp
}

func jobResult(sj core.ScoredJob, placeholders config.Placeholders) JobResult {
	j := sj.Job
	r := JobResult{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		Location:        j.Location,
		Remote:          j.Remote,
		Description:     j.Overview,
		Requirements:    nonNil(j.Qualifications),
		Preferred:       j.Optional,
		Benefits:        nonNil(j.Benefits),
		Salary:          j.Salary,
		ExperienceLevel: j.ExperienceLevel,
		Tags:            nonNil(j.Tags),
		Score:           math.Round(sj.Score*1000) / 1000,
		Rank:            sj.Rank,
	}
	if !j.PostedAt.IsZero() {
		r.PostedDate = j.PostedAt.Format("2006-01-02")
	}

	if placeholders.Enabled {
		if r.Salary == nil && placeholders.Salary.Max > 0 {
			r.Salary = &core.SalaryRange{
				Min:      placeholders.Salary.Min,
				Max:      placeholders.Salary.Max,
				Currency: placeholders.Salary.Currency,
			}
		}
		if placeholders.JobType != "" {
			jobType := placeholders.JobType
			r.JobType = &jobType
		}
		if r.ExperienceLevel == nil && placeholders.ExperienceLevel != "" {
			level := placeholders.ExperienceLevel
			r.ExperienceLevel = &level
		}
	}
	return r
}

func companyResult(c *core.Company) CompanyResult {
	return CompanyResult{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Details,
		Industry:    c.Industry,
		Size:        c.Size,
		Stage:       c.Stage,
		Funding:     c.Funding,
		Founded:     c.Founded,
		Location:    c.Headquarters,
		Website:     c.Website,
	}
}

// confidence is the mean score of the returned jobs, clamped to [0, 1] and
// rounded to two decimals.
func confidence(results []core.ScoredJob) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, sj := range results {
		sum += sj.Score
	}
	mean := min(max(sum/float64(len(results)), 0), 1)
	return math.Round(mean*100) / 100
}

func explain(query string, count int, steps []Step) string {
	var b strings.Builder
	noun := "jobs"
	if count == 1 {
		noun = "job"
	}
	fmt.Fprintf(&b, "Found %d %s for %q.", count, noun, query)

	for _, step := range steps {
		b.WriteByte(' ')
		switch step.Name {
		case "threshold":
			fmt.Fprintf(&b, "%d of %d ranked jobs scored at least %s.", step.After, step.Before, step.Detail)
		case "cap":
			fmt.Fprintf(&b, "Showing the top %s of %d matches.", step.Detail, step.Before)
		default:
			fmt.Fprintf(&b, "%s filter %s: %d -> %d", capitalize(step.Name), step.Detail, step.Before, step.After)
			if step.Unresolved > 0 {
				fmt.Fprintf(&b, " (%d kept without %s data)", step.Unresolved, step.Name)
			}
			b.WriteByte('.')
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
