// Package report turns engine progress into structured log lines.
package report

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gaopt/internal/evo"
	"gaopt/internal/model"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var _ evo.GenerationObserver = (*Logger)(nil)

// Logger is a GenerationObserver backed by zap.
type Logger struct {
	log   *zap.Logger
	every int
}

// NewLogger writes to w using the console or json encoder.
func NewLogger(w io.Writer, format string) (*Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch format {
	case "", FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.InfoLevel)
	return New(zap.New(core)), nil
}

// New wraps an existing zap logger.
func New(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log, every: 1}
}

// Every limits generation lines to every n-th generation. The last
// generation is always reported by OnFinish.
func (l *Logger) Every(n int) *Logger {
	if n < 1 {
		n = 1
	}
	l.every = n
	return l
}

func (l *Logger) OnStart(initialBest model.Individual) {
	l.log.Info("initial population evaluated",
		zap.Float64("best_fitness", initialBest.Fitness),
		zap.Float64("gene1", initialBest.Gene1),
		zap.Float64("gene2", initialBest.Gene2),
	)
}

func (l *Logger) OnGeneration(d model.GenerationDiagnostics) {
	if d.Generation%l.every != 0 {
		return
	}
	l.log.Info("generation",
		zap.Int("generation", d.Generation),
		zap.Float64("elite_fitness", d.EliteFitness),
		zap.Float64("gene1", d.EliteGene1),
		zap.Float64("gene2", d.EliteGene2),
		zap.Float64("mean_fitness", d.MeanFitness),
		zap.Int("feasible", d.FeasiblePool),
	)
}

func (l *Logger) OnFinish(result evo.RunResult) {
	l.log.Info("run finished",
		zap.Int("generations", len(result.BestByGeneration)),
		zap.Float64("best_fitness", result.Best.Fitness),
		zap.Float64("gene1", result.Best.Gene1),
		zap.Float64("gene2", result.Best.Gene2),
		zap.Float64("improvement", result.Best.Fitness-result.InitialBest.Fitness),
		zap.Int("evaluations", result.Evaluations),
	)
}

// Zap exposes the underlying logger for non-engine messages.
func (l *Logger) Zap() *zap.Logger {
	return l.log
}

func (l *Logger) Sync() error {
	return l.log.Sync()
}
