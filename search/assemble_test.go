package search

import (
	"bytes"
	"context"
	"testing"

	"github.com/poiesic/jobsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidence(t *testing.T) {
	scored := func(scores ...float64) []core.ScoredJob {
		out := make([]core.ScoredJob, len(scores))
		for i, s := range scores {
			out[i] = core.ScoredJob{Job: &core.Job{}, Score: s}
		}
		return out
	}

	assert.Equal(t, 0.0, confidence(nil))
	assert.Equal(t, 0.5, confidence(scored(0.4, 0.6)))
	assert.Equal(t, 0.33, confidence(scored(0.333333)))
	assert.Equal(t, 0.0, confidence(scored(-0.5, -0.1)))
	assert.Equal(t, 1.0, confidence(scored(1.0000001)))
}

func TestExplain(t *testing.T) {
	steps := []Step{
		{Name: "threshold", Detail: "0.20", Before: 10, After: 8},
		{Name: "stage", Detail: `"startup"`, Before: 8, After: 5, Unresolved: 2},
		{Name: "cap", Detail: "25", Before: 30, After: 25},
	}
	got := explain("startup engineer", 5, steps)
	assert.Equal(t,
		`Found 5 jobs for "startup engineer". 8 of 10 ranked jobs scored at least 0.20. `+
			`Stage filter "startup": 8 -> 5 (2 kept without stage data). Showing the top 25 of 30 matches.`,
		got)
}

func TestAssemble_CompaniesAreDistinctAndCapped(t *testing.T) {
	companies := []*core.Company{
		{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"},
	}
	var results []core.ScoredJob
	for i, name := range []string{"A", "A", "B", "Unknown", "C", "D"} {
		results = append(results, core.ScoredJob{Job: &core.Job{ID: name, Company: name}, Score: 0.5, Rank: i + 1})
	}
	resolver := companyMap{}
	for _, c := range companies {
		resolver[c.Name] = c
	}

	resp := assemble("q", results, resolver, Facets{}, Policy{Threshold: 0.1, Cap: 50}, nil, placeholdersOff)
	require.Len(t, resp.Companies, MaxCompanies)
	assert.Equal(t, "A", resp.Companies[0].Name)
	assert.Equal(t, "B", resp.Companies[1].Name)
	assert.Equal(t, "C", resp.Companies[2].Name)
}

func TestTraceMonitor(t *testing.T) {
	s, _ := newScenarioSearcher(t)
	var buf bytes.Buffer

	_, err := s.SearchWithMonitor(context.Background(), Request{Query: "remote engineer in austin"}, &TraceMonitor{W: &buf, Top: 2})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `query: "remote engineer in austin"`)
	assert.Contains(t, out, "policy: threshold=0.20 cap=25")
	assert.Contains(t, out, "Backend Engineer (Zeta)")
	assert.Contains(t, out, "step location")
	assert.Contains(t, out, "result: 1 jobs")
}
