package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElitistTournamentKeepsPoolBestFirst(t *testing.T) {
	pool := testPopulation(3, 9, 1, 7, 2, 5, 4, 8, 6, 0.5)
	rng := rand.New(rand.NewSource(17))

	for trial := 0; trial < 100; trial++ {
		next, err := ElitistTournament{Size: 4}.Replace(rng, pool)
		require.NoError(t, err)
		require.Len(t, next, 4)
		assert.Equal(t, 9.0, next[0].Fitness)
		assert.Equal(t, 1, indexOf(pool, next[0]))
		for _, ind := range next[1:] {
			assert.GreaterOrEqual(t, indexOf(pool, ind), 0)
		}
	}
}

func TestElitistTournamentTieKeepsFirstInPoolOrder(t *testing.T) {
	pool := testPopulation(1, 6, 2, 6)
	rng := rand.New(rand.NewSource(1))

	next, err := ElitistTournament{Size: 2}.Replace(rng, pool)
	require.NoError(t, err)
	assert.Equal(t, 1, indexOf(pool, next[0]))
}

func TestElitistTournamentWinnerBeatsWorst(t *testing.T) {
	// The worst member can only win a tournament against itself, which the
	// distinct draw rules out.
	pool := testPopulation(5, 4, 3, 0.1)
	rng := rand.New(rand.NewSource(8))

	for trial := 0; trial < 200; trial++ {
		next, err := ElitistTournament{Size: 4}.Replace(rng, pool)
		require.NoError(t, err)
		for _, ind := range next {
			assert.NotEqual(t, 0.1, ind.Fitness)
		}
	}
}

func TestElitistTournamentDoesNotAliasPool(t *testing.T) {
	pool := testPopulation(1, 2, 3)
	rng := rand.New(rand.NewSource(2))

	next, err := ElitistTournament{Size: 3}.Replace(rng, pool)
	require.NoError(t, err)
	for i := range next {
		next[i].Gene1 = -1
	}
	assert.Equal(t, testPopulation(1, 2, 3), pool)
}

func TestElitistTournamentRejectsSmallPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := ElitistTournament{Size: 1}.Replace(rng, testPopulation(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ElitistTournament{Size: 0}.Replace(rng, testPopulation(1, 2))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestElitistTournamentDrawsUniformlyOnFlatPool(t *testing.T) {
	pool := testPopulation(1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	rng := rand.New(rand.NewSource(23))
	const trials = 5000

	wins := make([]int, len(pool))
	repeatWinners := 0
	for trial := 0; trial < trials; trial++ {
		next, err := ElitistTournament{Size: 4}.Replace(rng, pool)
		require.NoError(t, err)
		assert.Equal(t, 0, indexOf(pool, next[0]))

		seen := make(map[int]bool, 3)
		repeated := false
		for _, ind := range next[1:] {
			idx := indexOf(pool, ind)
			require.GreaterOrEqual(t, idx, 0)
			wins[idx]++
			if seen[idx] {
				repeated = true
			}
			seen[idx] = true
		}
		if repeated {
			repeatWinners++
		}
	}

	// 15000 tournaments over 10 members: 1500 wins each on average.
	for idx, n := range wins {
		assert.InDelta(t, 1500, n, 225, "pool index %d", idx)
	}
	// Three winners from ten repeat in about 28% of trials.
	assert.InDelta(t, 0.28*trials, repeatWinners, 0.05*trials)
}
