package search

import (
	"math"
	"sort"

	"github.com/poiesic/jobsift/core"
)

const cosineEpsilon = 1e-8

// Cosine returns the cosine similarity of a and b. Vectors of different
// lengths are compared over their common prefix; a zero vector scores 0.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}

// Rank scores every job that has a vector against query and orders them by
// descending score. Equal scores keep corpus order.
func Rank(query []float32, jobs []*core.Job, vectors map[string][]float32) []core.ScoredJob {
	scored := make([]core.ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		v, ok := vectors[job.ID]
		if !ok || len(v) == 0 {
			continue
		}
		scored = append(scored, core.ScoredJob{Job: job, Score: Cosine(query, v)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
