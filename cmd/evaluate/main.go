package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/report"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/runner"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/runstore"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/scores"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/thresholdcache"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/logger"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/redis"
)

type cliConfig struct {
	ReportPath string
	Limit      int
	Plot       bool
	History    int
	Timeout    time.Duration
}

func parseFlags(cfg *config.AppConfig) cliConfig {
	cli := cliConfig{}

	flag.StringVar(&cli.ReportPath, "report", cfg.ReportPath, "Write the JSON report here (.zst to compress)")
	flag.IntVar(&cli.Limit, "limit", cfg.PerClassLimit, "Rows in the per-class table, 0 for all")
	flag.BoolVar(&cli.Plot, "plot", true, "Plot the optimized per-class thresholds")
	flag.IntVar(&cli.History, "history", 0, "Print this many previous runs per model from the run store")
	flag.DurationVar(&cli.Timeout, "timeout", 5*time.Minute, "Upper bound for evaluating one model")

	flag.Parse()
	return cli
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		logger.Init("", "")
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	logger.Init(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.RequireDataset(); err != nil {
		log.Fatal().Err(err).Msg("nothing to evaluate")
	}

	cli := parseFlags(cfg)

	inputs, err := loadInputs(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load datasets")
	}

	opts := []runner.Option{runner.WithTimeout(cli.Timeout)}

	if cfg.RedisHost != "" {
		r, err := redis.NewRedis(&cfg.RedisEnvConfig)
		if err != nil {
			log.Error().Err(err).Msg("failed to init redis client, continuing without threshold cache")
		} else {
			defer r.Close()
			opts = append(opts, runner.WithCache(thresholdcache.New(r, cfg.ThresholdCacheTTL)))
		}
	}

	var store *runstore.Store
	if cfg.RunDBPath != "" {
		store, err = runstore.Open(cfg.RunDBPath)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.RunDBPath).Msg("failed to open run store, runs will not be recorded")
		} else {
			defer store.Close()
			opts = append(opts, runner.WithRecorder(store))
		}
	}

	pipeline := evaluation.NewPipeline(
		evaluation.WithDefaultThreshold(cfg.DefaultThreshold),
		evaluation.WithOptimize(cfg.OptimizeThresholds),
		evaluation.WithLogger(logger.Sugar()),
	)

	log.Info().Int("models", len(inputs)).Float64("default_threshold", cfg.DefaultThreshold).
		Bool("optimize", cfg.OptimizeThresholds).Msg("Starting evaluation")
	results := runner.New(pipeline, opts...).Run(ctx, inputs)

	doc := report.Document{
		GeneratedAt:      time.Now().UTC(),
		DefaultThreshold: cfg.DefaultThreshold,
	}
	for _, res := range results {
		doc.Models = append(doc.Models, report.NewModelDocument(report.ModelInfo{
			Name:     res.Name,
			Space:    res.Space,
			Samples:  res.Samples,
			CacheHit: res.CacheHit,
			RunIDs:   res.RunIDs,
			Err:      res.Err,
		}, res.Outcome))
	}

	printResults(cli, cfg.DefaultThreshold, results)
	report.WriteTable(os.Stdout, doc.Entries())

	if store != nil && cli.History > 0 {
		printHistory(ctx, store, results, cli.History)
	}

	if cli.ReportPath != "" {
		if err := report.WriteFile(cli.ReportPath, doc); err != nil {
			log.Error().Err(err).Str("path", cli.ReportPath).Msg("failed to write report")
		} else {
			log.Info().Str("path", cli.ReportPath).Msg("Report written")
		}
	}

	if failed := runner.Failed(results); len(failed) > 0 {
		log.Error().Int("failed", len(failed)).Int("models", len(results)).Msg("evaluation finished with failures")
		logger.Sync()
		os.Exit(1)
	}
	log.Info().Msg("Evaluation finished")
}

func loadInputs(cfg *config.AppConfig) ([]runner.ModelInput, error) {
	paths := []string{cfg.DatasetPath}
	if cfg.EnhancedDatasetPath != "" {
		paths = append(paths, cfg.EnhancedDatasetPath)
	}

	inputs := make([]runner.ModelInput, 0, len(paths))
	for _, path := range paths {
		ds, err := scores.LoadDataset(path)
		if err != nil {
			return nil, err
		}
		if len(inputs) > 0 && !inputs[0].Space.Equal(ds.Space) {
			log.Warn().Str("model", ds.Model).Str("base", inputs[0].Name).
				Msg("label spaces differ, metrics are not directly comparable")
		}

		provider, err := newProvider(cfg, ds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Info().Str("model", ds.Model).Str("provider", provider.Name()).Int("classes", ds.Space.Len()).
			Str("path", path).Msg("Loaded dataset")

		inputs = append(inputs, runner.ModelInput{
			Name:       ds.Model,
			Space:      ds.Space,
			Provider:   provider,
			TrainTruth: ds.TrainTruth,
			TestTruth:  ds.TestTruth,
		})
	}
	return inputs, nil
}

// newProvider serves scores from the dataset file when it carries them and
// from the remote predictor otherwise.
func newProvider(cfg *config.AppConfig, ds *scores.Dataset) (scores.Provider, error) {
	if ds.HasScores() || cfg.PredictorURL == "" {
		p, err := scores.NewFileProvider(ds)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	trainRows, _ := ds.TrainTruth.Dims()
	testRows, _ := ds.TestTruth.Dims()
	p, err := scores.NewRemotePredictor(&cfg.PredictorEnvConfig, ds.Model, ds.Space, map[scores.Split]int{
		scores.SplitTrain: trainRows,
		scores.SplitTest:  testRows,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func printResults(cli cliConfig, defaultThreshold float64, results []runner.ModelResult) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("=== %s ===\nfailed: %v\n\n", res.Name, res.Err)
			continue
		}

		fmt.Println(report.Summary(fmt.Sprintf("%s, threshold %.2f", res.Name, defaultThreshold), res.Outcome.Default))
		if res.Outcome.Optimized != nil {
			title := fmt.Sprintf("%s, optimized thresholds", res.Name)
			if res.CacheHit {
				title += " (cached)"
			}
			fmt.Println(report.Summary(title, *res.Outcome.Optimized))
		}

		labels := res.Space.Terms()
		report.WritePerClass(os.Stdout, labels, res.Outcome.PerClass, cli.Limit)
		fmt.Println()

		if cli.Plot && len(res.Outcome.Classes) > 0 {
			evaluation.PlotThresholdsTerminal(os.Stdout, labels, res.Outcome.Classes)
			fmt.Println()
		}
	}
}

func printHistory(ctx context.Context, store *runstore.Store, results []runner.ModelResult, limit int) {
	for _, res := range results {
		runs, err := store.List(ctx, res.Name, limit)
		if err != nil {
			log.Warn().Err(err).Str("model", res.Name).Msg("failed to list previous runs")
			continue
		}
		entries := make([]report.Entry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, report.Entry{
				Model:    res.Name,
				Decision: run.CreatedAt.Format(time.DateTime) + " " + run.Decision,
				Metrics:  run.Metrics,
			})
		}
		fmt.Printf("\n--- %s: last %d runs ---\n", res.Name, len(entries))
		report.WriteTable(os.Stdout, entries)
	}
}
