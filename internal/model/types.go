package model

import "fmt"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Individual is a candidate solution: two real genes and the cached fitness.
// It is a value type; assigning it copies it.
type Individual struct {
	Gene1   float64 `json:"gene1"`
	Gene2   float64 `json:"gene2"`
	Fitness float64 `json:"fitness"`
}

// WithGenes returns a fresh, unevaluated individual carrying the given genes.
func WithGenes(gene1, gene2 float64) Individual {
	return Individual{Gene1: gene1, Gene2: gene2}
}

// Copy returns an independent individual with the same genes and fitness.
func (i Individual) Copy() Individual {
	return Individual{Gene1: i.Gene1, Gene2: i.Gene2, Fitness: i.Fitness}
}

func (i Individual) String() string {
	return fmt.Sprintf("genes=[%.2f, %.2f] fitness=%.4f", i.Gene1, i.Gene2, i.Fitness)
}

// ClonePopulation deep-copies a population so snapshots never alias.
func ClonePopulation(population []Individual) []Individual {
	if population == nil {
		return nil
	}
	cloned := make([]Individual, len(population))
	copy(cloned, population)
	return cloned
}

// GenerationDiagnostics summarizes one replaced population.
type GenerationDiagnostics struct {
	Generation     int     `json:"generation"`
	PopulationSize int     `json:"population_size"`
	EliteFitness   float64 `json:"elite_fitness"`
	EliteGene1     float64 `json:"elite_gene1"`
	EliteGene2     float64 `json:"elite_gene2"`
	MeanFitness    float64 `json:"mean_fitness"`
	MinFitness     float64 `json:"min_fitness"`
	PoolSize       int     `json:"pool_size"`
	FeasiblePool   int     `json:"feasible_pool"`
	DistinctGenes  int     `json:"distinct_genes"`
}

// RunRecord is the persisted summary of one engine run.
type RunRecord struct {
	VersionedRecord
	RunID             string     `json:"run_id"`
	CreatedAtUTC      string     `json:"created_at_utc"`
	Seed              int64      `json:"seed"`
	PopulationSize    int        `json:"population_size"`
	Generations       int        `json:"generations"`
	MutationMagnitude float64    `json:"mutation_magnitude"`
	ClampMutation     bool       `json:"clamp_mutation"`
	Operators         Operators  `json:"operators"`
	InitialBest       float64    `json:"initial_best"`
	Evaluations       int        `json:"evaluations"`
	Best              Individual `json:"best"`
}

// Operators names the selection, mutation and replacement operators of a run.
type Operators struct {
	Selection   string `json:"selection"`
	Mutation    string `json:"mutation"`
	Replacement string `json:"replacement"`
}

// PopulationSnapshot is a persisted population at a given generation.
type PopulationSnapshot struct {
	VersionedRecord
	RunID       string       `json:"run_id"`
	Generation  int          `json:"generation"`
	Individuals []Individual `json:"individuals"`
}
