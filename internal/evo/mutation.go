package evo

import (
	"fmt"
	"math/rand"

	"gaopt/internal/model"
)

// Mutator perturbs an individual and returns the perturbed copy.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, ind model.Individual) (model.Individual, error)
}

// ArithmeticMutation shifts each gene by Magnitude*(r-0.5) with r ~ U[0,1).
// Genes are left outside the bounds unless Clamp is set; the evaluator
// penalizes them instead.
type ArithmeticMutation struct {
	Magnitude float64
	Clamp     bool
	X1        Bounds
	X2        Bounds
}

func NewArithmeticMutation(cfg Config) ArithmeticMutation {
	return ArithmeticMutation{
		Magnitude: cfg.MutationMagnitude,
		Clamp:     cfg.ClampMutation,
		X1:        cfg.X1,
		X2:        cfg.X2,
	}
}

func (ArithmeticMutation) Name() string {
	return "arithmetic"
}

func (m ArithmeticMutation) Mutate(rng *rand.Rand, ind model.Individual) (model.Individual, error) {
	if rng == nil {
		return model.Individual{}, fmt.Errorf("random source is required")
	}
	gene1 := ind.Gene1 + m.delta(rng)
	gene2 := ind.Gene2 + m.delta(rng)
	if m.Clamp {
		gene1 = m.X1.Clamp(gene1)
		gene2 = m.X2.Clamp(gene2)
	}
	return model.WithGenes(gene1, gene2), nil
}

func (m ArithmeticMutation) delta(rng *rand.Rand) float64 {
	return m.Magnitude * (rng.Float64() - 0.5)
}
