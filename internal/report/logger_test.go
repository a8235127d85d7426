package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaopt/internal/evo"
	"gaopt/internal/model"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func TestJSONLoggerGenerationFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, FormatJSON)
	require.NoError(t, err)

	logger.OnGeneration(model.GenerationDiagnostics{
		Generation:   3,
		EliteFitness: 35.5,
		EliteGene1:   4,
		EliteGene2:   7.5,
		MeanFitness:  30,
		FeasiblePool: 9,
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "generation", line["msg"])
	assert.Equal(t, 3.0, line["generation"])
	assert.Equal(t, 35.5, line["elite_fitness"])
	assert.Equal(t, 4.0, line["gene1"])
	assert.Equal(t, 7.5, line["gene2"])
	assert.Equal(t, 30.0, line["mean_fitness"])
	assert.Equal(t, 9.0, line["feasible"])
}

func TestLoggerObservesWholeRun(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, FormatJSON)
	require.NoError(t, err)

	cfg := evo.DefaultConfig()
	cfg.Generations = 5
	engine, err := evo.NewEngine(cfg, evo.WithObserver(logger))
	require.NoError(t, err)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, cfg.Generations+2)
	assert.Equal(t, "initial population evaluated", lines[0]["msg"])
	assert.Equal(t, "run finished", lines[len(lines)-1]["msg"])
	assert.Equal(t, result.Best.Fitness, lines[len(lines)-1]["best_fitness"])
	assert.Equal(t, float64(result.Evaluations), lines[len(lines)-1]["evaluations"])
}

func TestEverySkipsGenerations(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, FormatJSON)
	require.NoError(t, err)
	logger.Every(2)

	for gen := 1; gen <= 4; gen++ {
		logger.OnGeneration(model.GenerationDiagnostics{Generation: gen})
	}
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, 2.0, lines[0]["generation"])
	assert.Equal(t, 4.0, lines[1]["generation"])
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, FormatConsole)
	require.NoError(t, err)

	logger.OnStart(model.Individual{Gene1: 1, Gene2: 2, Fitness: 13.1})
	out := buf.String()
	assert.True(t, strings.Contains(out, "INFO"))
	assert.True(t, strings.Contains(out, "initial population evaluated"))
	assert.True(t, strings.Contains(out, `"best_fitness": 13.1`))
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}

func TestNewNilLoggerIsNop(t *testing.T) {
	logger := New(nil)
	assert.NotPanics(t, func() {
		logger.OnStart(model.Individual{})
		logger.OnFinish(evo.RunResult{})
	})
}
