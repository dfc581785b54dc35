package search

import (
	"fmt"
	"io"

	"github.com/poiesic/jobsift/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(req Request)
	AfterClassify(facets Facets, policy Policy)
	AfterRank(ranked []core.ScoredJob)
	AfterStep(step Step)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)                  {}
func (n *noopMonitor) AfterClassify(_ Facets, _ Policy) {}
func (n *noopMonitor) AfterRank(_ []core.ScoredJob)     {}
func (n *noopMonitor) AfterStep(_ Step)                 {}
func (n *noopMonitor) Finish(_ *Response)               {}

// TraceMonitor writes a human-readable trace of each search stage.
type TraceMonitor struct {
	W   io.Writer
	Top int // ranked jobs to print; 0 prints none
}

var _ SearchMonitor = (*TraceMonitor)(nil)

func (t *TraceMonitor) Start(req Request) {
	fmt.Fprintf(t.W, "query: %q\n", req.Query)
}

func (t *TraceMonitor) AfterClassify(facets Facets, policy Policy) {
	fmt.Fprintf(t.W, "facets: location=%v stage=%q funding=%q size=%q broad=%t narrow=%t\n",
		facets.Location, facets.Stage, facets.Funding, facets.Size, facets.BroadEngineering, facets.NarrowTechnical)
	fmt.Fprintf(t.W, "policy: threshold=%.2f cap=%d rules=%v\n", policy.Threshold, policy.Cap, policy.Rules)
}

func (t *TraceMonitor) AfterRank(ranked []core.ScoredJob) {
	fmt.Fprintf(t.W, "ranked: %d jobs\n", len(ranked))
	for i := 0; i < len(ranked) && i < t.Top; i++ {
		fmt.Fprintf(t.W, "  %3d. [%0.3f] %s (%s)\n", ranked[i].Rank, ranked[i].Score, ranked[i].Job.Title, ranked[i].Job.Company)
	}
}

func (t *TraceMonitor) AfterStep(step Step) {
	fmt.Fprintf(t.W, "step %-10s %4d -> %-4d %s", step.Name, step.Before, step.After, step.Detail)
	if step.Unresolved > 0 {
		fmt.Fprintf(t.W, " (unresolved %d)", step.Unresolved)
	}
	fmt.Fprintln(t.W)
}

func (t *TraceMonitor) Finish(resp *Response) {
	fmt.Fprintf(t.W, "result: %d jobs, confidence %.2f\n", resp.Count, resp.Confidence)
}
