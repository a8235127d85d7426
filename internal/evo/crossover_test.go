package evo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaopt/internal/model"
)

func TestCrossoverTakesFirstGeneFromAAndSecondFromB(t *testing.T) {
	a := model.Individual{Gene1: 1, Gene2: 2, Fitness: 5}
	b := model.Individual{Gene1: 3, Gene2: 4, Fitness: 6}

	child := Crossover(a, b)
	assert.Equal(t, model.Individual{Gene1: 1, Gene2: 4}, child)
}

func TestPairwiseChildrenEnumeratesPairsInOrder(t *testing.T) {
	parents := []model.Individual{
		{Gene1: 10, Gene2: 11},
		{Gene1: 20, Gene2: 21},
		{Gene1: 30, Gene2: 31},
		{Gene1: 40, Gene2: 41},
	}

	children := PairwiseChildren(parents)
	require.Len(t, children, 6)

	want := []model.Individual{
		{Gene1: 10, Gene2: 21},
		{Gene1: 10, Gene2: 31},
		{Gene1: 10, Gene2: 41},
		{Gene1: 20, Gene2: 31},
		{Gene1: 20, Gene2: 41},
		{Gene1: 30, Gene2: 41},
	}
	assert.Equal(t, want, children)
}

func TestPairwiseChildrenCount(t *testing.T) {
	for n := 0; n <= 7; n++ {
		parents := make([]model.Individual, n)
		want := 0
		if n >= 2 {
			want = n * (n - 1) / 2
		}
		assert.Len(t, PairwiseChildren(parents), want, "n=%d", n)
	}
}
