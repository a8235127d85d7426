package evo

import "gaopt/internal/model"

// Evaluator maps an individual to its fitness. Constraint violations are not
// errors: they collapse to the penalty floor.
type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) Evaluator {
	return Evaluator{cfg: cfg}
}

// Feasible reports whether the individual satisfies every constraint and bound.
func (e Evaluator) Feasible(ind model.Individual) bool {
	if ind.Gene1+ind.Gene2 > e.cfg.SumLimit {
		return false
	}
	if ind.Gene2 < e.cfg.X2Floor {
		return false
	}
	return e.cfg.X1.Contains(ind.Gene1) && e.cfg.X2.Contains(ind.Gene2)
}

// Evaluate never returns less than the penalty floor.
func (e Evaluator) Evaluate(ind model.Individual) float64 {
	if !e.Feasible(ind) {
		return e.cfg.PenaltyFloor
	}
	y := e.cfg.Objective.Value(ind.Gene1, ind.Gene2)
	// Negated comparison also floors NaN.
	if !(y >= e.cfg.PenaltyFloor) {
		return e.cfg.PenaltyFloor
	}
	return y
}

// EvaluateAll writes fitness into every member of population in place.
func (e Evaluator) EvaluateAll(population []model.Individual) {
	for i := range population {
		population[i].Fitness = e.Evaluate(population[i])
	}
}
