package evo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gaopt/internal/model"
)

func summarizeGeneration(generation int, population, pool []model.Individual, evaluator Evaluator) model.GenerationDiagnostics {
	if len(population) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}

	fitness := make([]float64, len(population))
	distinct := make(map[[2]float64]struct{}, len(population))
	for i, ind := range population {
		fitness[i] = ind.Fitness
		distinct[[2]float64{ind.Gene1, ind.Gene2}] = struct{}{}
	}
	feasible := 0
	for _, ind := range pool {
		if evaluator.Feasible(ind) {
			feasible++
		}
	}

	elite := population[0]
	return model.GenerationDiagnostics{
		Generation:     generation,
		PopulationSize: len(population),
		EliteFitness:   elite.Fitness,
		EliteGene1:     elite.Gene1,
		EliteGene2:     elite.Gene2,
		MeanFitness:    stat.Mean(fitness, nil),
		MinFitness:     floats.Min(fitness),
		PoolSize:       len(pool),
		FeasiblePool:   feasible,
		DistinctGenes:  len(distinct),
	}
}
