package evo

import (
	"fmt"
	"math"
	"math/rand"

	"gaopt/internal/model"
)

// Selector draws a parent set from an evaluated population.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, population []model.Individual) ([]model.Individual, error)
}

// RouletteSelector draws len(population) individuals with replacement, each
// with probability proportional to its fitness. A population whose fitness
// sums to zero is sampled uniformly instead.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, population []model.Individual) ([]model.Individual, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(population) == 0 {
		return nil, fmt.Errorf("population is empty")
	}

	total := 0.0
	for i, ind := range population {
		if math.IsNaN(ind.Fitness) || ind.Fitness < 0 {
			return nil, fmt.Errorf("invalid fitness at index %d: %v", i, ind.Fitness)
		}
		total += ind.Fitness
	}

	selected := make([]model.Individual, 0, len(population))
	if total == 0 {
		for range population {
			selected = append(selected, population[rng.Intn(len(population))].Copy())
		}
		return selected, nil
	}

	cumulative := make([]float64, len(population))
	acc := 0.0
	for i, ind := range population {
		acc += ind.Fitness / total
		cumulative[i] = acc
	}
	for range population {
		selected = append(selected, population[spin(rng, cumulative)].Copy())
	}
	return selected, nil
}

// spin returns the first index whose cumulative weight exceeds a uniform draw.
func spin(rng *rand.Rand, cumulative []float64) int {
	r := rng.Float64()
	for i, edge := range cumulative {
		if r < edge {
			return i
		}
	}
	// Rounding can leave the last edge just below 1.
	for i := len(cumulative) - 1; i > 0; i-- {
		if cumulative[i] > cumulative[i-1] {
			return i
		}
	}
	return 0
}
