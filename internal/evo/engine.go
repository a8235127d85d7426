package evo

import (
	"context"
	"fmt"
	"math/rand"

	"gaopt/internal/model"
)

// State is the engine's position in the per-run state machine.
type State int

const (
	StateNew State = iota
	StateInitialized
	StateEvaluated
	StateSelectionDone
	StateCrossoverDone
	StateMutationDone
	StatePoolEvaluated
	StateReplacementDone
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInitialized:
		return "initialized"
	case StateEvaluated:
		return "evaluated"
	case StateSelectionDone:
		return "selection_done"
	case StateCrossoverDone:
		return "crossover_done"
	case StateMutationDone:
		return "mutation_done"
	case StatePoolEvaluated:
		return "pool_evaluated"
	case StateReplacementDone:
		return "replacement_done"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// GenerationObserver receives progress from a running engine. It has no way
// to influence the run.
type GenerationObserver interface {
	OnStart(initialBest model.Individual)
	OnGeneration(diagnostics model.GenerationDiagnostics)
	OnFinish(result RunResult)
}

type nopObserver struct{}

func (nopObserver) OnStart(model.Individual) {}

func (nopObserver) OnGeneration(model.GenerationDiagnostics) {}

func (nopObserver) OnFinish(RunResult) {}

type RunResult struct {
	// BestByGeneration[g-1] is the elite fitness after generation g.
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	FinalPopulation  []model.Individual
	Best             model.Individual
	InitialBest      model.Individual
	Evaluations      int
}

type Option func(*Engine)

// WithRand injects the random source shared by every operator of the run.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

func WithObserver(observer GenerationObserver) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

func WithSelector(selector Selector) Option {
	return func(e *Engine) {
		if selector != nil {
			e.selector = selector
		}
	}
}

func WithMutator(mutator Mutator) Option {
	return func(e *Engine) {
		if mutator != nil {
			e.mutator = mutator
		}
	}
}

// Engine runs the select, crossover, mutate, evaluate, replace pipeline for
// a fixed number of generations. It is single-threaded.
type Engine struct {
	cfg         Config
	rng         *rand.Rand
	evaluator   Evaluator
	initializer Initializer
	selector    Selector
	mutator     Mutator
	replacement Replacement
	observer    GenerationObserver

	state State
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:         cfg,
		evaluator:   NewEvaluator(cfg),
		initializer: NewInitializer(cfg),
		selector:    RouletteSelector{},
		mutator:     NewArithmeticMutation(cfg),
		replacement: ElitistTournament{Size: cfg.PopulationSize},
		observer:    nopObserver{},
		state:       StateNew,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Evaluator() Evaluator {
	return e.evaluator
}

// Operators reports the operator names a run will use, for run records.
func (e *Engine) Operators() model.Operators {
	return model.Operators{
		Selection:   e.selector.Name(),
		Mutation:    e.mutator.Name(),
		Replacement: e.replacement.Name(),
	}
}

// State reports the last completed transition.
func (e *Engine) State() State {
	return e.state
}

// Run samples an initial population and evolves it.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	initial, err := e.initializer.Initialize(e.rng, e.cfg.PopulationSize)
	if err != nil {
		return RunResult{}, err
	}
	e.state = StateInitialized
	return e.evolve(ctx, initial)
}

// RunFrom evolves a caller-supplied population, e.g. one restored from a store.
// The input is copied and re-evaluated.
func (e *Engine) RunFrom(ctx context.Context, initial []model.Individual) (RunResult, error) {
	if len(initial) != e.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), e.cfg.PopulationSize)
	}
	e.state = StateInitialized
	return e.evolve(ctx, model.ClonePopulation(initial))
}

func (e *Engine) evolve(ctx context.Context, population []model.Individual) (RunResult, error) {
	e.evaluator.EvaluateAll(population)
	e.state = StateEvaluated

	initialBest := bestOf(population)
	e.observer.OnStart(initialBest)

	history := make([]float64, 0, e.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, e.cfg.Generations)
	evaluations := len(population)

	for gen := 1; gen <= e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		next, pool, err := e.generation(population)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		population = next
		evaluations += len(pool)

		history = append(history, population[0].Fitness)
		summary := summarizeGeneration(gen, population, pool, e.evaluator)
		diagnostics = append(diagnostics, summary)
		e.observer.OnGeneration(summary)
	}
	e.state = StateTerminated

	result := RunResult{
		BestByGeneration: history,
		Diagnostics:      diagnostics,
		FinalPopulation:  model.ClonePopulation(population),
		Best:             bestOf(population),
		InitialBest:      initialBest,
		Evaluations:      evaluations,
	}
	e.observer.OnFinish(result)
	return result, nil
}

// generation performs one transition and returns the next population and
// the evaluated pool it was drawn from.
func (e *Engine) generation(population []model.Individual) ([]model.Individual, []model.Individual, error) {
	selected, err := e.selector.Select(e.rng, population)
	if err != nil {
		return nil, nil, fmt.Errorf("selection: %w", err)
	}
	e.state = StateSelectionDone

	children := PairwiseChildren(selected)
	e.state = StateCrossoverDone

	mutants := make([]model.Individual, 0, len(children))
	for _, child := range children {
		mutant, err := e.mutator.Mutate(e.rng, child.Copy())
		if err != nil {
			return nil, nil, fmt.Errorf("mutation: %w", err)
		}
		mutants = append(mutants, mutant)
	}
	e.state = StateMutationDone

	pool := make([]model.Individual, 0, len(selected)+len(mutants))
	pool = append(pool, selected...)
	pool = append(pool, mutants...)
	e.evaluator.EvaluateAll(pool)
	e.state = StatePoolEvaluated

	next, err := e.replacement.Replace(e.rng, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("replacement: %w", err)
	}
	e.state = StateReplacementDone
	return next, pool, nil
}

// bestOf returns the first individual with maximal fitness.
func bestOf(population []model.Individual) model.Individual {
	if len(population) == 0 {
		return model.Individual{}
	}
	best := population[0]
	for _, ind := range population[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}
