package evo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig reports a configuration the engine refuses to run with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Bounds is a closed interval [Min, Max].
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Objective is f(x1, x2) = Linear1*x1 + Linear2*x2 - Quadratic1*x1^2 - Quadratic2*x2^2.
type Objective struct {
	Linear1    float64 `json:"linear1" yaml:"linear1"`
	Linear2    float64 `json:"linear2" yaml:"linear2"`
	Quadratic1 float64 `json:"quadratic1" yaml:"quadratic1"`
	Quadratic2 float64 `json:"quadratic2" yaml:"quadratic2"`
}

func (o Objective) Value(x1, x2 float64) float64 {
	return o.Linear1*x1 + o.Linear2*x2 - o.Quadratic1*x1*x1 - o.Quadratic2*x2*x2
}

// Config is the read-only parameter set of one run. It is passed by value.
type Config struct {
	MutationMagnitude float64   `json:"mutation_magnitude"`
	PopulationSize    int       `json:"population_size"`
	Generations       int       `json:"generations"`
	X1                Bounds    `json:"x1"`
	X2                Bounds    `json:"x2"`
	SumLimit          float64   `json:"sum_limit"`
	X2Floor           float64   `json:"x2_floor"`
	Objective         Objective `json:"objective"`
	PenaltyFloor      float64   `json:"penalty_floor"`
	ClampMutation     bool      `json:"clamp_mutation"`
	Seed              int64     `json:"seed"`
}

const (
	DefaultMutationMagnitude = 0.2
	DefaultPopulationSize    = 4
	DefaultGenerations       = 100
	DefaultSumLimit          = 12
	DefaultX2Floor           = 2
	DefaultPenaltyFloor      = 1e-6
	DefaultSeed              = 1
)

func DefaultConfig() Config {
	return Config{
		MutationMagnitude: DefaultMutationMagnitude,
		PopulationSize:    DefaultPopulationSize,
		Generations:       DefaultGenerations,
		X1:                Bounds{Min: 0, Max: 10},
		X2:                Bounds{Min: 0, Max: 10},
		SumLimit:          DefaultSumLimit,
		X2Floor:           DefaultX2Floor,
		Objective:         Objective{Linear1: 4, Linear2: 5, Quadratic1: 0.5, Quadratic2: 0.2},
		PenaltyFloor:      DefaultPenaltyFloor,
		Seed:              DefaultSeed,
	}
}

// Validate returns an error wrapping ErrInvalidConfig for unusable settings.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("%w: population size must be >= 2, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generations must be > 0, got %d", ErrInvalidConfig, c.Generations)
	}
	finite := []struct {
		name  string
		value float64
	}{
		{"mutation magnitude", c.MutationMagnitude},
		{"x1 min", c.X1.Min},
		{"x1 max", c.X1.Max},
		{"x2 min", c.X2.Min},
		{"x2 max", c.X2.Max},
		{"sum limit", c.SumLimit},
		{"x2 floor", c.X2Floor},
		{"objective linear1", c.Objective.Linear1},
		{"objective linear2", c.Objective.Linear2},
		{"objective quadratic1", c.Objective.Quadratic1},
		{"objective quadratic2", c.Objective.Quadratic2},
		{"penalty floor", c.PenaltyFloor},
	}
	for _, item := range finite {
		if math.IsNaN(item.value) || math.IsInf(item.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, item.name)
		}
	}
	if c.MutationMagnitude < 0 {
		return fmt.Errorf("%w: mutation magnitude must be >= 0, got %v", ErrInvalidConfig, c.MutationMagnitude)
	}
	if c.X1.Min > c.X1.Max {
		return fmt.Errorf("%w: x1 bounds inverted [%v, %v]", ErrInvalidConfig, c.X1.Min, c.X1.Max)
	}
	if c.X2.Min > c.X2.Max {
		return fmt.Errorf("%w: x2 bounds inverted [%v, %v]", ErrInvalidConfig, c.X2.Min, c.X2.Max)
	}
	if c.PenaltyFloor <= 0 {
		return fmt.Errorf("%w: penalty floor must be > 0, got %v", ErrInvalidConfig, c.PenaltyFloor)
	}
	return nil
}

// PoolSize is the number of individuals evaluated per generation:
// the selected parents plus one child per unordered parent pair.
func (c Config) PoolSize() int {
	n := c.PopulationSize
	return n + n*(n-1)/2
}
