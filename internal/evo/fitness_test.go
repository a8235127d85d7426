package evo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"gaopt/internal/model"
)

func TestEvaluateFeasiblePointReturnsObjective(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	cases := []struct {
		x1, x2 float64
	}{
		{3, 4},
		{0, 2},
		{2.5, 9.5},
		{4, 8},
		{0, 10},
	}
	for _, tc := range cases {
		want := 4*tc.x1 + 5*tc.x2 - 0.5*tc.x1*tc.x1 - 0.2*tc.x2*tc.x2
		got := e.Evaluate(model.WithGenes(tc.x1, tc.x2))
		assert.InDelta(t, want, got, 1e-12, "x1=%v x2=%v", tc.x1, tc.x2)
	}
}

func TestEvaluateInfeasiblePointsReturnPenaltyFloor(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	cases := []model.Individual{
		model.WithGenes(11, 5),    // sum > 12 and x1 out of bounds
		model.WithGenes(7, 6),     // sum > 12
		model.WithGenes(3, 1.5),   // x2 below floor
		model.WithGenes(-0.1, 5),  // x1 below bound
		model.WithGenes(1, 10.01), // x2 above bound
	}
	for _, ind := range cases {
		assert.Equal(t, DefaultPenaltyFloor, e.Evaluate(ind), "%v", ind)
		assert.False(t, e.Feasible(ind), "%v", ind)
	}
}

func TestEvaluateFloorsNegativeObjective(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	// Feasible boundary point whose objective is -0.8.
	ind := model.WithGenes(10, 2)
	assert.True(t, e.Feasible(ind))
	assert.Equal(t, DefaultPenaltyFloor, e.Evaluate(ind))
}

func TestEvaluateNeverBelowFloor(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	for x1 := -2.0; x1 <= 14; x1 += 0.37 {
		for x2 := -2.0; x2 <= 14; x2 += 0.41 {
			assert.GreaterOrEqual(t, e.Evaluate(model.WithGenes(x1, x2)), DefaultPenaltyFloor)
		}
	}
	assert.Equal(t, DefaultPenaltyFloor, e.Evaluate(model.WithGenes(math.NaN(), 3)))
	assert.Equal(t, DefaultPenaltyFloor, e.Evaluate(model.WithGenes(math.Inf(1), 3)))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	ind := model.WithGenes(2.7, 9.2)

	first := e.Evaluate(ind)
	second := e.Evaluate(ind)
	assert.Equal(t, first, second)
	assert.Zero(t, ind.Fitness, "evaluate must not write into the individual")
}

func TestEvaluateAllWritesFitnessInPlace(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	population := []model.Individual{
		model.WithGenes(3, 4),
		model.WithGenes(11, 5),
	}

	e.EvaluateAll(population)

	assert.InDelta(t, 24.3, population[0].Fitness, 1e-12)
	assert.Equal(t, DefaultPenaltyFloor, population[1].Fitness)
}
