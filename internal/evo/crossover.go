package evo

import "gaopt/internal/model"

// Crossover takes the first gene from a and the second gene from b. The
// child starts unevaluated.
func Crossover(a, b model.Individual) model.Individual {
	return model.WithGenes(a.Gene1, b.Gene2)
}

// PairwiseChildren produces one child for every pair i < j of parents,
// enumerated by ascending i and then ascending j.
func PairwiseChildren(parents []model.Individual) []model.Individual {
	n := len(parents)
	if n < 2 {
		return []model.Individual{}
	}
	children := make([]model.Individual, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			children = append(children, Crossover(parents[i], parents[j]))
		}
	}
	return children
}
