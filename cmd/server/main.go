// Package main provides the long-running service: scheduled pipeline runs
// (backfill → simulation → report) with Prometheus metrics and health
// endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"signal-lab/internal/binance"
	"signal-lab/internal/candles"
	"signal-lab/internal/config"
	"signal-lab/internal/ingestion"
	"signal-lab/internal/logging"
	"signal-lab/internal/observability"
	"signal-lab/internal/pipeline"
	"signal-lab/internal/reporting"
	"signal-lab/internal/simulation"
	"signal-lab/internal/storage"
	chstore "signal-lab/internal/storage/clickhouse"
	"signal-lab/internal/storage/memory"
	"signal-lab/internal/storage/migrations"
	pgstore "signal-lab/internal/storage/postgres"
)

// Server holds the pipeline and its run state.
type Server struct {
	pipeline *pipeline.Pipeline
	interval time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	runs        int
	lastRun     time.Time
	lastErr     string
	lastBatch   *simulation.RunResult
	runInFlight bool
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	useFixtures := flag.Bool("use-fixtures", false, "Load the fixture dataset (implies --use-memory)")
	interval := flag.Duration("pipeline-interval", time.Hour, "Interval between pipeline runs")
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
	if !*useFixtures {
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
	}

	srv := &Server{
		pipeline: pipeline.New(pipeline.Options{
			SignalStore: stores.signals,
			Backfiller:  backfiller,
			Runner: simulation.NewRunner(simulation.RunnerOptions{
				SignalStore:    stores.signals,
				OutcomeStore:   stores.outcomes,
				Provider:       provider,
				LookaheadHours: cfg.Simulation.LookaheadHours,
				Workers:        cfg.Simulation.Workers,
				Logger:         logger,
			}),
			Generator: reporting.NewGenerator(stores.outcomes).WithThresholds(
				cfg.Report.MinSignals,
				cfg.Report.GoodWinRatePct,
				cfg.Report.PerfectMinSignals,
			),
			CoverageFloor: cfg.Report.CoverageFloor,
			Logger:        logger,
		}),
		interval: *interval,
		logger:   logger,
	}

	go srv.runLoop(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/status", srv.handleStatus)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", zap.String("addr", cfg.Server.ListenAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

// runLoop runs the pipeline immediately and then on every tick.
func (s *Server) runLoop(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Server) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.runInFlight {
		s.mu.Unlock()
		return
	}
	s.runInFlight = true
	s.mu.Unlock()

	result, err := s.pipeline.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runInFlight = false
	s.runs++
	s.lastRun = time.Now().UTC()
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error("pipeline run failed", zap.Error(err))
		return
	}
	s.lastErr = ""
	s.lastBatch = result.Batch
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"runs":          s.runs,
		"last_run":      s.lastRun.Format(time.RFC3339),
		"last_error":    s.lastErr,
		"run_in_flight": s.runInFlight,
	}
	if s.lastBatch != nil {
		status["total"] = s.lastBatch.Total
		status["simulated"] = s.lastBatch.Simulated
		status["coverage"] = s.lastBatch.Coverage()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
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
