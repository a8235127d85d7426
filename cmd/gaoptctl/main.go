package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"gaopt/internal/evo"
	"gaopt/internal/report"
	"gaopt/internal/storage"
	gaoptapi "gaopt/pkg/gaopt"
)

const (
	artifactsDir  = "runs"
	exportsDir    = "exports"
	defaultDBPath = "gaopt.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres|mysql|badger"),
		dbPath: fs.String("db-path", defaultDBPath, "sqlite file, badger directory, or postgres/mysql dsn"),
	}
}

func (s storeFlags) client(log *zap.Logger, logEvery int) (*gaoptapi.Client, error) {
	return gaoptapi.New(gaoptapi.Options{
		StoreKind:    *s.kind,
		DBPath:       *s.dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
		Logger:       log,
		LogEvery:     logEvery,
	})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (YAML or JSON)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	continueFrom := fs.String("continue-from", "", "seed the run with the final population of a stored run")
	population := fs.Int("pop", evo.DefaultPopulationSize, "population size")
	generations := fs.Int("gens", evo.DefaultGenerations, "generation count")
	mutation := fs.Float64("mutation", evo.DefaultMutationMagnitude, "mutation magnitude")
	seed := fs.Int64("seed", evo.DefaultSeed, "rng seed")
	clamp := fs.Bool("clamp", false, "clamp mutated genes to their bounds")
	noPlot := fs.Bool("no-plot", false, "skip the fitness history PNG")
	logFormat := fs.String("log-format", "auto", "progress log format: auto|console|json")
	logEvery := fs.Int("log-every", 1, "log every n-th generation")
	quiet := fs.Bool("quiet", false, "disable progress logging")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = gaoptapi.RunRequest{
			RunID:                *runID,
			ContinueFrom:         *continueFrom,
			PopulationSize:       *population,
			Generations:          *generations,
			MutationMagnitude:    *mutation,
			MutationMagnitudeSet: setFlags["mutation"],
			Seed:                 *seed,
			ClampMutation:        *clamp,
			SkipPlot:             *noPlot,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":        *runID,
			"continue-from": *continueFrom,
			"pop":           *population,
			"gens":          *generations,
			"mutation":      *mutation,
			"seed":          *seed,
			"clamp":         *clamp,
			"no-plot":       *noPlot,
		})
	}

	log := zap.NewNop()
	if !*quiet {
		log, err = newProgressLogger(*logFormat)
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()
	}

	client, err := store.client(log, *logEvery)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(map[string]any{
			"run_id":             summary.RunID,
			"artifacts_dir":      summary.ArtifactsDir,
			"plot":               summary.PlotPath,
			"best_by_generation": summary.BestByGeneration,
			"initial_best":       summary.InitialBest,
			"best":               summary.Best,
			"evaluations":        summary.Evaluations,
		})
	}

	fmt.Printf("run completed run_id=%s generations=%d evaluations=%s\n",
		summary.RunID,
		len(summary.BestByGeneration),
		humanize.Comma(int64(summary.Evaluations)),
	)
	fmt.Printf("initial_best_fitness=%.6f\n", summary.InitialBest.Fitness)
	fmt.Printf("best gene1=%.6f gene2=%.6f fitness=%.6f\n", summary.Best.Gene1, summary.Best.Gene2, summary.Best.Fitness)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	if summary.PlotPath != "" {
		fmt.Printf("plot=%s\n", filepath.Clean(summary.PlotPath))
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, gaoptapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return writeJSON(items)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created=%s seed=%d pop=%d gens=%d final_best_fitness=%.6f\n",
			item.RunID,
			relativeTime(item.CreatedAtUTC),
			item.Seed,
			item.Population,
			item.Generations,
			item.FinalBestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run from run index")
	limit := fs.Int("limit", 0, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("fitness", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, gaoptapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return writeJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 0, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("diagnostics", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, gaoptapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d pop=%d elite_fitness=%.6f gene1=%.6f gene2=%.6f mean_fitness=%.6f min_fitness=%.6f feasible=%d/%d distinct=%d\n",
			d.Generation,
			d.PopulationSize,
			d.EliteFitness,
			d.EliteGene1,
			d.EliteGene2,
			d.MeanFitness,
			d.MinFitness,
			d.FeasiblePool,
			d.PoolSize,
			d.DistinctGenes,
		)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the best individual of the most recent run")
	jsonOut := fs.Bool("json", false, "emit best individual as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("best", *runID, *latest); err != nil {
		return err
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	best, err := client.Best(ctx, gaoptapi.BestRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(best)
	}
	fmt.Printf("best gene1=%.6f gene2=%.6f fitness=%.6f\n", best.Gene1, best.Gene2, best.Fitness)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("export", *runID, *latest); err != nil {
		return err
	}

	client, err := gaoptapi.New(gaoptapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, gaoptapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run from run index")
	out := fs.String("out", "", "output PNG path (defaults to the run's artifacts directory)")
	width := fs.Int("width", 0, "image width in pixels")
	height := fs.Int("height", 0, "image height in pixels")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("plot", *runID, *latest); err != nil {
		return err
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Plot(ctx, gaoptapi.PlotRequest{
		RunID:   *runID,
		Latest:  *latest,
		OutPath: *out,
		Width:   *width,
		Height:  *height,
	})
	if err != nil {
		return err
	}
	fmt.Printf("plot=%s\n", path)
	return nil
}

// newProgressLogger writes engine progress to stderr. "auto" picks the
// console encoder on a terminal and JSON otherwise.
func newProgressLogger(format string) (*zap.Logger, error) {
	if format == "auto" {
		format = report.FormatJSON
		fd := os.Stderr.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			format = report.FormatConsole
		}
	}
	logger, err := report.NewLogger(os.Stderr, format)
	if err != nil {
		return nil, err
	}
	return logger.Zap(), nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "delete the most recent run from run index")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireRunSelector("delete", *runID, *latest); err != nil {
		return err
	}

	client, err := store.client(nil, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	deleted, err := client.DeleteRun(ctx, gaoptapi.DeleteRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	fmt.Printf("deleted run_id=%s\n", deleted)
	return nil
}

func requireRunSelector(command, runID string, latest bool) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func relativeTime(createdAtUTC string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(t)
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: gaoptctl <run|runs|fitness|diagnostics|best|export|plot|delete> [flags]", msg)
}
