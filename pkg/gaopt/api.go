package gaopt

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gaopt/internal/evo"
	"gaopt/internal/model"
	"gaopt/internal/report"
	"gaopt/internal/stats"
	"gaopt/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "gaopt.db"
	defaultBadgerDir    = "gaopt.badger"
	defaultRunsLimit    = 20
)

type Options struct {
	StoreKind string
	// DBPath is a file path for sqlite, a directory for badger and a
	// driver DSN for postgres and mysql.
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *zap.Logger
	// LogEvery reports every n-th generation; 0 reports all of them.
	LogEvery int
}

type Client struct {
	store       storage.Store
	initialized bool
	log         *zap.Logger
	logEvery    int

	artifactsDir string
	exportsDir   string
	now          func() time.Time
}

type RunRequest struct {
	RunID          string
	PopulationSize int
	Generations    int
	// MutationMagnitude of zero selects the default unless
	// MutationMagnitudeSet is true.
	MutationMagnitude    float64
	MutationMagnitudeSet bool
	Seed                 int64
	ClampMutation        bool
	// ContinueFrom seeds the run with the final population of a stored run.
	ContinueFrom string
	SkipPlot     bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	PlotPath         string
	BestByGeneration []float64
	InitialBest      model.Individual
	Best             model.Individual
	Evaluations      int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
}

type DeleteRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BestRequest struct {
	RunID  string
	Latest bool
}

type PlotRequest struct {
	RunID  string
	Latest bool
	// OutPath defaults to the run's artifacts directory.
	OutPath string
	Width   int
	Height  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
		if storeKind == storage.KindBadger {
			dbPath = defaultBadgerDir
		}
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logEvery := opts.LogEvery
	if logEvery < 1 {
		logEvery = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		log:          log,
		logEvery:     logEvery,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := evo.DefaultConfig()
	if req.PopulationSize != 0 {
		cfg.PopulationSize = req.PopulationSize
	}
	if req.Generations != 0 {
		cfg.Generations = req.Generations
	}
	if req.MutationMagnitude != 0 || req.MutationMagnitudeSet {
		cfg.MutationMagnitude = req.MutationMagnitude
	}
	cfg.Seed = req.Seed
	cfg.ClampMutation = req.ClampMutation
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	var initial []model.Individual
	if req.ContinueFrom != "" {
		snapshot, ok, err := c.store.GetPopulation(ctx, req.ContinueFrom)
		if err != nil {
			return RunSummary{}, err
		}
		if !ok {
			return RunSummary{}, fmt.Errorf("population not found for run id: %s", req.ContinueFrom)
		}
		initial = snapshot.Individuals
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	now := c.now().UTC()

	observer := report.New(c.log.With(zap.String("run_id", runID))).Every(c.logEvery)
	engine, err := evo.NewEngine(cfg, evo.WithObserver(observer))
	if err != nil {
		return RunSummary{}, err
	}
	var result evo.RunResult
	if initial != nil {
		result, err = engine.RunFrom(ctx, initial)
	} else {
		result, err = engine.Run(ctx)
	}
	if err != nil {
		return RunSummary{}, err
	}

	operators := engine.Operators()
	if err := c.persist(ctx, runID, now, cfg, operators, result); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config:                runConfig(runID, cfg, operators),
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: result.Diagnostics,
		FinalPopulation:       result.FinalPopulation,
		Best:                  result.Best,
		Summary:               stats.Summarize(result.InitialBest.Fitness, result.BestByGeneration),
	})
	if err != nil {
		return RunSummary{}, err
	}

	plotPath := ""
	if !req.SkipPlot {
		plotPath = filepath.Join(runDir, stats.FitnessPlotFile)
		if err := stats.WriteFitnessPlotPNG(plotPath, result.BestByGeneration, stats.DefaultPlotOptions()); err != nil {
			return RunSummary{}, err
		}
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            runID,
		PopulationSize:   cfg.PopulationSize,
		Generations:      cfg.Generations,
		Seed:             cfg.Seed,
		FinalBestFitness: result.Best.Fitness,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		PlotPath:         plotPath,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		InitialBest:      result.InitialBest,
		Best:             result.Best,
		Evaluations:      result.Evaluations,
	}, nil
}

func (c *Client) persist(ctx context.Context, runID string, createdAt time.Time, cfg evo.Config, operators model.Operators, result evo.RunResult) error {
	if err := c.store.SaveRun(ctx, model.RunRecord{
		VersionedRecord:   storage.CurrentVersion(),
		RunID:             runID,
		CreatedAtUTC:      createdAt.Format(time.RFC3339Nano),
		Seed:              cfg.Seed,
		PopulationSize:    cfg.PopulationSize,
		Generations:       cfg.Generations,
		MutationMagnitude: cfg.MutationMagnitude,
		ClampMutation:     cfg.ClampMutation,
		Operators:         operators,
		InitialBest:       result.InitialBest.Fitness,
		Evaluations:       result.Evaluations,
		Best:              result.Best,
	}); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return fmt.Errorf("save diagnostics: %w", err)
	}
	if err := c.store.SavePopulation(ctx, model.PopulationSnapshot{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Generation:      cfg.Generations,
		Individuals:     result.FinalPopulation,
	}); err != nil {
		return fmt.Errorf("save population: %w", err)
	}
	return nil
}

// Runs lists stored runs newest first. Runs only present in the artifacts
// run index (e.g. recorded by another process with the memory store) are
// merged in.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, len(records)+len(entries))
	seen := make(map[string]struct{}, len(records))
	for _, run := range records {
		seen[run.RunID] = struct{}{}
		out = append(out, RunItem{
			RunID:            run.RunID,
			CreatedAtUTC:     run.CreatedAtUTC,
			Seed:             run.Seed,
			Population:       run.PopulationSize,
			Generations:      run.Generations,
			FinalBestFitness: run.Best.Fitness,
		})
	}
	for _, e := range entries {
		if _, ok := seen[e.RunID]; ok {
			continue
		}
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// DeleteRun removes a run from the store and from the artifacts directory
// and returns the resolved run id.
func (c *Client) DeleteRun(ctx context.Context, req DeleteRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "delete")
	if err != nil {
		return "", err
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}

	_, stored, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if err := c.store.DeleteRun(ctx, runID); err != nil {
		return "", fmt.Errorf("delete run: %w", err)
	}
	removed, err := stats.RemoveRunArtifacts(c.artifactsDir, runID)
	if err != nil {
		return "", err
	}
	if !stored && !removed {
		return "", fmt.Errorf("run not found: %s", runID)
	}
	return runID, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// FitnessHistory reads the store first and falls back to the run's CSV series,
// so runs recorded by an earlier process stay readable with the memory store.
func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessSeries(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

// Best returns the best individual of a run's final population.
func (c *Client) Best(ctx context.Context, req BestRequest) (model.Individual, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "best")
	if err != nil {
		return model.Individual{}, err
	}
	if err := c.Init(ctx); err != nil {
		return model.Individual{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.Individual{}, err
	}
	if ok {
		return run.Best, nil
	}

	population, ok, err := stats.ReadFinalPopulation(c.artifactsDir, runID)
	if err != nil {
		return model.Individual{}, err
	}
	if !ok || len(population) == 0 {
		return model.Individual{}, fmt.Errorf("run not found: %s", runID)
	}
	best := population[0]
	for _, ind := range population[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best, nil
}

// Plot renders the fitness history of a run to a PNG and returns its path.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "plot")
	if err != nil {
		return "", err
	}
	history, err := c.FitnessHistory(ctx, FitnessHistoryRequest{RunID: runID})
	if err != nil {
		return "", err
	}

	opts := stats.DefaultPlotOptions()
	if req.Width > 0 {
		opts.Width = req.Width
	}
	if req.Height > 0 {
		opts.Height = req.Height
	}
	path := req.OutPath
	if path == "" {
		path = filepath.Join(c.artifactsDir, runID, stats.FitnessPlotFile)
	}
	if err := stats.WriteFitnessPlotPNG(path, history, opts); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func runConfig(runID string, cfg evo.Config, operators model.Operators) stats.RunConfig {
	return stats.RunConfig{
		RunID:             runID,
		Seed:              cfg.Seed,
		PopulationSize:    cfg.PopulationSize,
		Generations:       cfg.Generations,
		MutationMagnitude: cfg.MutationMagnitude,
		ClampMutation:     cfg.ClampMutation,
		X1Min:             cfg.X1.Min,
		X1Max:             cfg.X1.Max,
		X2Min:             cfg.X2.Min,
		X2Max:             cfg.X2.Max,
		SumLimit:          cfg.SumLimit,
		X2Floor:           cfg.X2Floor,
		Objective: [4]float64{
			cfg.Objective.Linear1,
			cfg.Objective.Linear2,
			cfg.Objective.Quadratic1,
			cfg.Objective.Quadratic2,
		},
		PenaltyFloor: cfg.PenaltyFloor,
		Operators:    operators,
	}
}
