package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"gaopt/internal/model"
)

// Replacement forms the next population from an evaluated pool.
type Replacement interface {
	Name() string
	Replace(rng *rand.Rand, pool []model.Individual) ([]model.Individual, error)
}

// ElitistTournament keeps the single best pool member at index 0 and fills
// the remaining Size-1 slots with binary tournament winners drawn from the
// whole pool.
type ElitistTournament struct {
	Size int
}

func (ElitistTournament) Name() string {
	return "elitist_tournament"
}

func (r ElitistTournament) Replace(rng *rand.Rand, pool []model.Individual) ([]model.Individual, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if r.Size < 1 {
		return nil, fmt.Errorf("%w: replacement size must be >= 1, got %d", ErrInvalidConfig, r.Size)
	}
	if len(pool) < 2 {
		return nil, fmt.Errorf("%w: tournament pool needs >= 2 individuals, got %d", ErrInvalidConfig, len(pool))
	}

	ranked := model.ClonePopulation(pool)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	next := make([]model.Individual, 0, r.Size)
	next = append(next, ranked[0].Copy())
	for len(next) < r.Size {
		next = append(next, binaryTournament(rng, ranked).Copy())
	}
	return next, nil
}

// binaryTournament draws two distinct members and returns the fitter one;
// the first drawn wins ties.
func binaryTournament(rng *rand.Rand, pool []model.Individual) model.Individual {
	a := rng.Intn(len(pool))
	b := rng.Intn(len(pool) - 1)
	if b >= a {
		b++
	}
	if pool[b].Fitness > pool[a].Fitness {
		return pool[b]
	}
	return pool[a]
}
