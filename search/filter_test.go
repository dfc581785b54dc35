package search

import (
	"testing"

	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeMatches(t *testing.T) {
	tests := []struct {
		employees int
		matches   []string
	}{
		{employees: 10, matches: []string{"tiny", "small"}},
		{employees: 50, matches: []string{"tiny", "small"}},
		{employees: 150, matches: []string{"small"}},
		{employees: 200, matches: []string{"small"}},
		{employees: 201, matches: []string{"medium"}},
		{employees: 750, matches: []string{"medium", "big"}},
		{employees: 1000, matches: []string{"medium", "big"}},
		{employees: 5000, matches: []string{"large", "big"}},
	}

	for _, tt := range tests {
		var got []string
		for _, bucket := range []string{"tiny", "small", "medium", "large", "big"} {
			if sizeMatches(bucket, tt.employees) {
				got = append(got, bucket)
			}
		}
		assert.ElementsMatch(t, tt.matches, got, "employees=%d", tt.employees)
	}
}

func TestStageTerms(t *testing.T) {
	assert.Equal(t, []string{"startup", "seed", "early"}, stageTerms("startup"))
	assert.Equal(t, []string{"startup", "seed", "growth"}, stageTerms("small"))
	assert.Equal(t, []string{"established", "enterprise", "public", "mature"}, stageTerms("large"))
	assert.Equal(t, stageTerms("enterprise"), stageTerms("established"))
	assert.Equal(t, []string{"growth", "scale"}, stageTerms("growth"))
}

func TestFundingTerms(t *testing.T) {
	assert.Equal(t, []string{"public", "ipo"}, fundingTerms("ipo"))
	assert.Equal(t, []string{"bootstrapped", "self-funded"}, fundingTerms("bootstrapped"))
	assert.Equal(t, []string{"series b"}, fundingTerms("series b"))
}

func filterFixture() ([]core.ScoredJob, *corpus.Snapshot) {
	senior := "Senior"
	jobs := []*core.Job{
		{ID: "1", Title: "Platform Engineer", Company: "Acme", Location: "Austin, TX", Salary: &core.SalaryRange{Min: 150000, Max: 190000}},
		{ID: "2", Title: "Senior Data Engineer", Company: "acme ", Location: "Boston, MA", Remote: true, ExperienceLevel: &senior},
		{ID: "3", Title: "Backend Engineer", Company: "Ghost Corp", Location: "Remote", Remote: true},
		{ID: "4", Title: "SRE", Company: "Globex", Location: "Austin, TX", Salary: &core.SalaryRange{Min: 90000, Max: 110000}},
	}
	companies := []*core.Company{
		{ID: "c1", Name: "Acme", Size: 150, Stage: "Startup", Funding: "Series A", Industry: "Fintech"},
		{ID: "c2", Name: "Globex", Size: 5000, Stage: "Established", Funding: "Public", Industry: "Logistics"},
	}
	scored := make([]core.ScoredJob, len(jobs))
	for i, j := range jobs {
		scored[i] = core.ScoredJob{Job: j, Score: 0.5, Rank: i + 1}
	}
	return scored, corpus.NewSnapshot(jobs, companies)
}

func runFilters(facets Facets, req *Filters) ([]string, []Step) {
	scored, snap := filterFixture()
	var steps []Step
	for _, f := range buildFilters(facets, req, snap) {
		var step Step
		scored, step = f.apply(scored)
		steps = append(steps, step)
	}
	ids := make([]string, len(scored))
	for i, sj := range scored {
		ids[i] = sj.Job.ID
	}
	return ids, steps
}

func TestFilters_Location(t *testing.T) {
	ids, steps := runFilters(Classify("engineer in AUSTIN"), nil)
	assert.Equal(t, []string{"1", "4"}, ids)
	require.Len(t, steps, 1)
	assert.Equal(t, Step{Name: "location", Detail: `"austin"`, Before: 4, After: 2}, steps[0])
}

func TestFilters_LocationCityAndState(t *testing.T) {
	facets := Classify("engineer in San Francisco, CA")
	require.Equal(t, []string{"san francisco", "ca"}, facets.Location)

	var scored []core.ScoredJob
	for i, loc := range []string{"San Francisco, CA", "Chicago, IL", "Boca Raton, FL", "Los Angeles, CA"} {
		job := &core.Job{ID: loc, Title: "Engineer", Company: "Acme", Location: loc}
		scored = append(scored, core.ScoredJob{Job: job, Score: 0.5, Rank: i + 1})
	}

	kept, step := locationFilter("location", facets.Location).apply(scored)
	require.Len(t, kept, 1)
	assert.Equal(t, "San Francisco, CA", kept[0].Job.ID)
	assert.Equal(t, 4, step.Before)
	assert.Equal(t, 1, step.After)
}

func TestMatchesPlace(t *testing.T) {
	tests := []struct {
		location string
		keywords []string
		want     bool
	}{
		{"Austin, TX", []string{"austin"}, true},
		{"Austin, TX", []string{"AUSTIN", "tx"}, true},
		{"Dallas, TX", []string{"austin", "tx"}, false},
		{"Dallas, TX", []string{"tx"}, true},
		{"Chicago, IL", []string{"ca"}, false},
		{"Los Angeles, CA", []string{"ca"}, true},
		{"Remote", []string{"austin", "remote"}, true},
		{"Atlanta, GA", []string{"la"}, false},
		{"Boston, MA, USA", []string{"usa"}, true},
		{"", []string{"austin"}, false},
		{"Austin, TX", []string{" "}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPlace(tt.location, tt.keywords), "%q %v", tt.location, tt.keywords)
	}
}

func TestFilters_CompanyFiltersFailOpen(t *testing.T) {
	t.Run("stage", func(t *testing.T) {
		ids, steps := runFilters(Classify("startup engineer"), nil)
		// Ghost Corp has no company record and is kept
		assert.Equal(t, []string{"1", "2", "3"}, ids)
		require.Len(t, steps, 1)
		assert.Equal(t, "stage", steps[0].Name)
		assert.Equal(t, 1, steps[0].Unresolved)
	})

	t.Run("size", func(t *testing.T) {
		ids, _ := runFilters(Facets{Size: "tiny"}, nil)
		assert.Equal(t, []string{"3"}, ids)

		ids, _ = runFilters(Facets{Size: "large"}, nil)
		assert.Equal(t, []string{"3", "4"}, ids)
	})

	t.Run("funding", func(t *testing.T) {
		ids, _ := runFilters(Classify("ipo companies"), nil)
		assert.Equal(t, []string{"3", "4"}, ids)
	})

	t.Run("filters are ANDed in order", func(t *testing.T) {
		_, steps := runFilters(Facets{Location: []string{"austin"}, Stage: "startup", Funding: "series a", Size: "small"}, nil)
		names := make([]string, len(steps))
		for i, s := range steps {
			names[i] = s.Name
		}
		assert.Equal(t, []string{"location", "stage", "funding", "size"}, names)
		assert.Equal(t, 1, steps[len(steps)-1].After)
	})
}

func TestFilters_CallerFilters(t *testing.T) {
	remote := true
	ids, _ := runFilters(Facets{}, &Filters{Remote: &remote})
	assert.Equal(t, []string{"2", "3"}, ids)

	ids, _ = runFilters(Facets{}, &Filters{Locations: []string{"boston", "remote"}})
	assert.Equal(t, []string{"2", "3"}, ids)

	ids, _ = runFilters(Facets{}, &Filters{Industries: []string{"fintech"}})
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	// Unknown experience level fails open
	ids, _ = runFilters(Facets{}, &Filters{ExperienceLevel: "senior"})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)

	// Jobs without salary data are kept
	floor := 120000
	ids, steps := runFilters(Facets{}, &Filters{SalaryMin: &floor})
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	require.Len(t, steps, 1)
	assert.Equal(t, 2, steps[0].Unresolved)
	assert.Equal(t, "at least 120000", steps[0].Detail)
}

func TestFilters_Validate(t *testing.T) {
	lo, hi, neg := 200000, 100000, -1
	assert.NoError(t, (*Filters)(nil).Validate())
	assert.ErrorIs(t, (&Filters{SalaryMin: &lo, SalaryMax: &hi}).Validate(), ErrInvalidFilters)
	assert.ErrorIs(t, (&Filters{SalaryMin: &neg}).Validate(), ErrInvalidFilters)
	assert.NoError(t, (&Filters{SalaryMin: &hi, SalaryMax: &lo}).Validate())
}
