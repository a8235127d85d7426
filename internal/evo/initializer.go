package evo

import (
	"fmt"
	"math/rand"

	"gaopt/internal/model"
)

// Initializer samples genes uniformly inside the configured bounds.
type Initializer struct {
	X1 Bounds
	X2 Bounds
}

func NewInitializer(cfg Config) Initializer {
	return Initializer{X1: cfg.X1, X2: cfg.X2}
}

// Initialize returns size unevaluated individuals.
func (in Initializer) Initialize(rng *rand.Rand, size int) ([]model.Individual, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", ErrInvalidConfig, size)
	}
	population := make([]model.Individual, 0, size)
	for i := 0; i < size; i++ {
		gene1 := uniform(rng, in.X1)
		gene2 := uniform(rng, in.X2)
		population = append(population, model.WithGenes(gene1, gene2))
	}
	return population, nil
}

func uniform(rng *rand.Rand, b Bounds) float64 {
	return b.Min + rng.Float64()*(b.Max-b.Min)
}
