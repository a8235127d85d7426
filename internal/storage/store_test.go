package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaopt/internal/model"
)

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:   CurrentVersion(),
		RunID:             id,
		CreatedAtUTC:      createdAt,
		Seed:              42,
		PopulationSize:    4,
		Generations:       3,
		MutationMagnitude: 0.2,
		InitialBest:       21.5,
		Evaluations:       34,
		Best:              model.Individual{Gene1: 2.7, Gene2: 9.2, Fitness: 36.2},
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	older := sampleRun("run-a", "2026-01-01T00:00:00Z")
	newer := sampleRun("run-b", "2026-02-01T00:00:00Z")
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	loaded, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, loaded)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.Equal(t, "run-a", runs[1].RunID)

	// Saving again overwrites.
	older.Evaluations = 99
	require.NoError(t, store.SaveRun(ctx, older))
	loaded, _, err = store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 99, loaded.Evaluations)

	history := []float64{10.5, 12.25, 12.25}
	require.NoError(t, store.SaveFitnessHistory(ctx, "run-a", history))
	loadedHistory, ok, err := store.GetFitnessHistory(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history, loadedHistory)

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, EliteFitness: 10.5, MeanFitness: 6, MinFitness: 1e-6, PoolSize: 10, FeasiblePool: 7, DistinctGenes: 3},
		{Generation: 2, EliteFitness: 12.25, MeanFitness: 8, MinFitness: 2, PoolSize: 10, FeasiblePool: 9, DistinctGenes: 4},
	}
	require.NoError(t, store.SaveGenerationDiagnostics(ctx, "run-a", diagnostics))
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diagnostics, loadedDiagnostics)

	snapshot := model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		RunID:           "run-a",
		Generation:      3,
		Individuals: []model.Individual{
			{Gene1: 2.7, Gene2: 9.2, Fitness: 36.2},
			{Gene1: 1, Gene2: 3, Fitness: 16.7},
		},
	}
	require.NoError(t, store.SavePopulation(ctx, snapshot))
	loadedSnapshot, ok, err := store.GetPopulation(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, loadedSnapshot)

	require.NoError(t, store.DeleteRun(ctx, "run-a"))
	_, ok, err = store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetFitnessHistory(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetPopulation(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err = store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-b", runs[0].RunID)
}
