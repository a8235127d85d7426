package evo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaopt/internal/model"
)

type recordingObserver struct {
	started     int
	generations []model.GenerationDiagnostics
	finished    int
}

func (o *recordingObserver) OnStart(model.Individual) {
	o.started++
}

func (o *recordingObserver) OnGeneration(d model.GenerationDiagnostics) {
	o.generations = append(o.generations, d)
}

func (o *recordingObserver) OnFinish(RunResult) {
	o.finished++
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 1
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Generations = 0
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngineRunProducesHistoryPerGeneration(t *testing.T) {
	cfg := DefaultConfig()
	observer := &recordingObserver{}
	engine, err := NewEngine(cfg, WithObserver(observer))
	require.NoError(t, err)
	assert.Equal(t, StateNew, engine.State())

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminated, engine.State())
	require.Len(t, result.BestByGeneration, cfg.Generations)
	require.Len(t, result.Diagnostics, cfg.Generations)
	require.Len(t, result.FinalPopulation, cfg.PopulationSize)
	assert.Equal(t, cfg.PopulationSize+cfg.Generations*cfg.PoolSize(), result.Evaluations)

	for i, best := range result.BestByGeneration {
		assert.GreaterOrEqual(t, best, cfg.PenaltyFloor)
		assert.Equal(t, i+1, result.Diagnostics[i].Generation)
		assert.Equal(t, best, result.Diagnostics[i].EliteFitness)
		assert.Equal(t, cfg.PoolSize(), result.Diagnostics[i].PoolSize)
		assert.Equal(t, cfg.PopulationSize, result.Diagnostics[i].PopulationSize)
	}

	last := result.BestByGeneration[len(result.BestByGeneration)-1]
	assert.Equal(t, last, result.Best.Fitness)
	assert.Equal(t, result.FinalPopulation[0], result.Best)
	for _, ind := range result.FinalPopulation {
		assert.LessOrEqual(t, ind.Fitness, result.Best.Fitness)
	}

	assert.Equal(t, 1, observer.started)
	assert.Len(t, observer.generations, cfg.Generations)
	for _, d := range observer.generations {
		assert.Equal(t, cfg.PopulationSize, d.PopulationSize, "generation %d", d.Generation)
	}
	assert.Equal(t, 1, observer.finished)
}

func TestEnginePopulationSizeIsInvariantForLargerPopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 9
	cfg.Generations = 25
	observer := &recordingObserver{}
	engine, err := NewEngine(cfg, WithObserver(observer))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, observer.generations, cfg.Generations)
	for _, d := range observer.generations {
		assert.Equal(t, 9, d.PopulationSize, "generation %d", d.Generation)
		assert.Equal(t, cfg.PoolSize(), d.PoolSize)
	}
	assert.Len(t, result.FinalPopulation, 9)
}

// shiftMutator moves both genes by a fixed step and counts its calls.
type shiftMutator struct {
	step  float64
	calls int
}

func (m *shiftMutator) Name() string { return "shift" }

func (m *shiftMutator) Mutate(_ *rand.Rand, ind model.Individual) (model.Individual, error) {
	m.calls++
	return model.WithGenes(ind.Gene1+m.step, ind.Gene2+m.step), nil
}

// firstSelector returns copies of the first individual only.
type firstSelector struct{}

func (firstSelector) Name() string { return "first" }

func (firstSelector) Select(_ *rand.Rand, population []model.Individual) ([]model.Individual, error) {
	out := make([]model.Individual, len(population))
	for i := range out {
		out[i] = population[0].Copy()
	}
	return out, nil
}

func TestEngineUsesInjectedOperators(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generations = 1
	mutator := &shiftMutator{step: 0.5}
	engine, err := NewEngine(cfg, WithMutator(mutator), WithSelector(firstSelector{}))
	require.NoError(t, err)
	assert.Equal(t, model.Operators{Selection: "first", Mutation: "shift", Replacement: "elitist_tournament"}, engine.Operators())

	initial := []model.Individual{
		model.WithGenes(2, 3),
		model.WithGenes(1, 3),
		model.WithGenes(4, 6),
		model.WithGenes(2, 2),
	}
	result, err := engine.RunFrom(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, cfg.PoolSize()-cfg.PopulationSize, mutator.calls)

	// Every pool member is either the selected parent or its shifted child.
	for _, ind := range result.FinalPopulation {
		parent := ind.Gene1 == 2 && ind.Gene2 == 3
		child := ind.Gene1 == 2.5 && ind.Gene2 == 3.5
		assert.True(t, parent || child, "unexpected individual %s", ind)
	}
}

func TestEngineDefaultOperators(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), WithMutator(nil), WithSelector(nil))
	require.NoError(t, err)
	assert.Equal(t, model.Operators{Selection: "roulette", Mutation: "arithmetic", Replacement: "elitist_tournament"}, engine.Operators())
}

func TestEngineIsDeterministicForSeed(t *testing.T) {
	run := func() RunResult {
		engine, err := NewEngine(DefaultConfig(), WithRand(rand.New(rand.NewSource(42))))
		require.NoError(t, err)
		result, err := engine.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()
	assert.Equal(t, first.BestByGeneration, second.BestByGeneration)
	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.FinalPopulation, second.FinalPopulation)
}

func TestEngineSeedFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99

	a, err := NewEngine(cfg)
	require.NoError(t, err)
	b, err := NewEngine(cfg, WithRand(rand.New(rand.NewSource(99))))
	require.NoError(t, err)

	ra, err := a.Run(context.Background())
	require.NoError(t, err)
	rb, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ra.BestByGeneration, rb.BestByGeneration)
}

func TestEngineEliteFitnessIsPoolMaximum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generations = 1
	engine, err := NewEngine(cfg, WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, err)

	population := []model.Individual{
		model.WithGenes(3, 8),
		model.WithGenes(1, 3),
		model.WithGenes(11, 5),
		model.WithGenes(2, 2),
	}
	next, pool, err := engine.generation(evaluated(engine, population))
	require.NoError(t, err)
	require.Len(t, pool, cfg.PoolSize())
	require.Len(t, next, cfg.PopulationSize)

	poolMax := pool[0].Fitness
	for _, ind := range pool {
		assert.Equal(t, engine.Evaluator().Evaluate(ind), ind.Fitness)
		if ind.Fitness > poolMax {
			poolMax = ind.Fitness
		}
	}
	assert.Equal(t, poolMax, next[0].Fitness)
	assert.Equal(t, StateReplacementDone, engine.State())
}

func TestEngineGenerationKeepsSourcePopulationIntact(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	population := evaluated(engine, []model.Individual{
		model.WithGenes(3, 8),
		model.WithGenes(1, 3),
		model.WithGenes(4, 6),
		model.WithGenes(2, 2),
	})
	snapshot := model.ClonePopulation(population)

	_, _, err = engine.generation(population)
	require.NoError(t, err)
	assert.Equal(t, snapshot, population)
}

func TestEngineRunFromUsesSuppliedPopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generations = 5
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	initial := []model.Individual{
		model.WithGenes(2.7, 9.2),
		model.WithGenes(1, 3),
		model.WithGenes(4, 6),
		model.WithGenes(2, 2),
	}
	result, err := engine.RunFrom(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, engine.Evaluator().Evaluate(initial[0]), result.InitialBest.Fitness)
	assert.Zero(t, initial[0].Fitness, "input population must not be modified")
	assert.Len(t, result.BestByGeneration, cfg.Generations)

	_, err = engine.RunFrom(context.Background(), initial[:3])
	assert.Error(t, err)
}

func TestEngineRunHonoursCancelledContext(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pool_evaluated", StatePoolEvaluated.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func evaluated(engine *Engine, population []model.Individual) []model.Individual {
	out := model.ClonePopulation(population)
	engine.Evaluator().EvaluateAll(out)
	return out
}
