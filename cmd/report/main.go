// Package main generates the backtest report: markdown summary plus flat
// outcome and group-stat CSVs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"signal-lab/internal/candles"
	"signal-lab/internal/config"
	"signal-lab/internal/domain"
	"signal-lab/internal/logging"
	"signal-lab/internal/pipeline"
	"signal-lab/internal/reporting"
	"signal-lab/internal/simulation"
	"signal-lab/internal/storage"
	"signal-lab/internal/storage/memory"
	"signal-lab/internal/storage/migrations"
	pgstore "signal-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	useFixtures := flag.Bool("use-fixtures", false, "Run the full pipeline over the fixture dataset")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	outcomeStore, cleanup, err := createOutcomeStore(ctx, cfg, *useFixtures)
	if err != nil {
		logger.Fatal("storage setup failed", zap.Error(err))
	}
	defer cleanup()

	generator := reporting.NewGenerator(outcomeStore).WithThresholds(
		cfg.Report.MinSignals,
		cfg.Report.GoodWinRatePct,
		cfg.Report.PerfectMinSignals,
	)

	var report *reporting.Report
	if *useFixtures {
		report, err = runFixturePipeline(ctx, cfg, outcomeStore, generator, logger)
	} else {
		report, err = generator.Generate(ctx)
	}
	if err != nil {
		logger.Fatal("report generation failed", zap.Error(err))
	}

	outcomes, err := outcomeStore.GetAll(ctx)
	if err != nil {
		logger.Fatal("load outcomes", zap.Error(err))
	}

	if err := writeReportFiles(*outputDir, report, outcomes); err != nil {
		logger.Fatal("write report files", zap.Error(err))
	}

	fmt.Printf("Report written to %s (%d signals, coverage %.1f%%)\n",
		*outputDir, report.TotalSignals, report.Coverage*100)
}

// runFixturePipeline executes the full pipeline over the deterministic
// fixture dataset in memory.
func runFixturePipeline(ctx context.Context, cfg *config.Config, outcomeStore storage.OutcomeStore, generator *reporting.Generator, logger *zap.Logger) (*reporting.Report, error) {
	signalStore := memory.NewSignalStore()
	candleStore := memory.NewCandleStore()
	if err := pipeline.LoadFixtures(ctx, signalStore, candleStore); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	p := pipeline.New(pipeline.Options{
		SignalStore: signalStore,
		Runner: simulation.NewRunner(simulation.RunnerOptions{
			SignalStore:    signalStore,
			OutcomeStore:   outcomeStore,
			Provider:       candles.NewProvider(candleStore, nil, logger),
			LookaheadHours: cfg.Simulation.LookaheadHours,
			Workers:        cfg.Simulation.Workers,
			Logger:         logger,
		}),
		Generator:     generator,
		CoverageFloor: cfg.Report.CoverageFloor,
		Logger:        logger,
	})

	result, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

func writeReportFiles(dir string, report *reporting.Report, outcomes []*domain.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := map[string]string{
		"REPORT.md":    reporting.RenderMarkdown(report),
		"outcomes.csv": reporting.RenderOutcomesCSV(outcomes),
		"by_day.csv":   reporting.RenderGroupsCSV(report.ByDay),
		"by_hour.csv":  reporting.RenderGroupsCSV(report.ByHour),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func createOutcomeStore(ctx context.Context, cfg *config.Config, useMemory bool) (storage.OutcomeStore, func(), error) {
	if useMemory || cfg.Storage.UseMemory {
		return memory.NewOutcomeStore(), func() {}, nil
	}
	if cfg.Storage.PostgresDSN == "" {
		return nil, nil, errors.New("storage.postgres_dsn required (or --use-fixtures)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return pgstore.NewOutcomeStore(pool), pool.Close, nil
}
