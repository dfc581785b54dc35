package search

import (
	"testing"

	"github.com/poiesic/jobsift/ai/mock"
	"github.com/poiesic/jobsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	t.Run("self similarity is one", func(t *testing.T) {
		for _, text := range []string{"go engineer", "data scientist", "x"} {
			v := mock.DeterministicVector(text, 64)
			assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := mock.DeterministicVector("backend engineer", 64)
		b := mock.DeterministicVector("frontend engineer", 64)
		assert.Equal(t, Cosine(a, b), Cosine(b, a))
	})

	t.Run("orthogonal", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-6)
	})

	t.Run("zero vector does not divide by zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{0, 0, 0}, []float32{1, 2, 3}))
	})

	t.Run("mismatched lengths use common prefix", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0, 5}), 1e-6)
	})
}

func TestRank(t *testing.T) {
	jobs := []*core.Job{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
		{ID: "e", Title: "E"},
	}
	vectors := map[string][]float32{
		"a": {0, 1},
		"b": {1, 0},
		"c": {0, 1},
		"d": {1, 0},
		// e has no vector
	}

	ranked := Rank([]float32{1, 0}, jobs, vectors)
	require.Len(t, ranked, 4)

	ids := make([]string, len(ranked))
	for i, sj := range ranked {
		ids[i] = sj.Job.ID
		assert.Equal(t, i+1, sj.Rank)
	}
	// Equal scores keep corpus order
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank([]float32{1}, nil, nil))
}
