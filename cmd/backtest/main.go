// Package main runs the outcome simulation batch: backfill candle windows,
// simulate every stored signal, persist outcomes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"signal-lab/internal/binance"
	"signal-lab/internal/candles"
	"signal-lab/internal/config"
	"signal-lab/internal/ingestion"
	"signal-lab/internal/logging"
	"signal-lab/internal/pipeline"
	"signal-lab/internal/simulation"
	"signal-lab/internal/storage"
	chstore "signal-lab/internal/storage/clickhouse"
	"signal-lab/internal/storage/memory"
	"signal-lab/internal/storage/migrations"
	pgstore "signal-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	useFixtures := flag.Bool("use-fixtures", false, "Load the fixture dataset (implies --use-memory)")
	skipBackfill := flag.Bool("skip-backfill", false, "Simulate against stored candles only, no exchange fetch")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logger.Info("shutting down", zap.String("signal", s.String()))
		cancel()
	}()

	stores, cleanup, err := createStores(ctx, cfg, *useMemory || *useFixtures)
	if err != nil {
		logger.Fatal("storage setup failed", zap.Error(err))
	}
	defer cleanup()

	if *useFixtures {
		if err := pipeline.LoadFixtures(ctx, stores.signals, stores.candles); err != nil {
			logger.Fatal("load fixtures", zap.Error(err))
		}
		logger.Info("fixture dataset loaded")
	}

	var source candles.Source
	if !*skipBackfill && !*useFixtures {
		source = binance.NewClient(
			binance.WithBaseURL(cfg.Binance.BaseURL),
			binance.WithMaxRetries(cfg.Binance.MaxRetries),
		)
	}
	provider := candles.NewProvider(stores.candles, source, logger)

	var backfiller *ingestion.Backfiller
	if source != nil {
		backfiller = ingestion.NewBackfiller(ingestion.BackfillOptions{
			Provider:       provider,
			LookaheadHours: cfg.Simulation.LookaheadHours,
			Logger:         logger,
		})

		signals, err := stores.signals.GetAll(ctx)
		if err != nil {
			logger.Fatal("load signals", zap.Error(err))
		}
		if _, err := backfiller.Backfill(ctx, signals); err != nil {
			logger.Fatal("backfill failed", zap.Error(err))
		}
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		SignalStore:    stores.signals,
		OutcomeStore:   stores.outcomes,
		Provider:       provider,
		LookaheadHours: cfg.Simulation.LookaheadHours,
		Workers:        cfg.Simulation.Workers,
		Logger:         logger,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("simulation batch failed", zap.Error(err))
	}

	fmt.Printf("Simulated %d/%d signals (%d invalid, %d without data, coverage %.1f%%)\n",
		result.Simulated, result.Total, result.ValidationErrors, result.NoData, result.Coverage()*100)
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

type storeSet struct {
	signals  storage.SignalStore
	candles  storage.CandleStore
	outcomes storage.OutcomeStore
}

func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*storeSet, func(), error) {
	if useMemory || cfg.Storage.UseMemory {
		return &storeSet{
			signals:  memory.NewSignalStore(),
			candles:  memory.NewCandleStore(),
			outcomes: memory.NewOutcomeStore(),
		}, func() {}, nil
	}

	if cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickHouseDSN == "" {
		return nil, nil, errors.New("storage DSNs required (or --use-memory)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return &storeSet{
		signals:  pgstore.NewSignalStore(pool),
		candles:  chstore.NewCandleStore(conn),
		outcomes: pgstore.NewOutcomeStore(pool),
	}, cleanup, nil
}
