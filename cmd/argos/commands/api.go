package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/api"
	"github.com/wonny/argos/internal/api/handlers"
	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- Serves cross-sectional rankings
- Captures and serves indicator snapshots
- Runs backtests on demand

Endpoints:
  GET  /health                 - Health check
  GET  /api/rankings           - Cross-sectional ranking as of a date
  GET  /api/snapshots          - Stored snapshot dates
  POST /api/snapshots/capture  - Capture a snapshot
  GET  /api/snapshots/{date}   - One stored snapshot
  POST /api/backtests          - Run a backtest

Example:
  go run ./cmd/argos api
  go run ./cmd/argos api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos API Server ===")

	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	log := rt.log

	// Override port if flag is set
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": rt.cfg.Port,
		"env":  rt.cfg.Env,
	}).Info("Initializing API server")

	// 2. Load strategy
	strat, hash, err := loadStrategy(rt, strategyFile)
	if err != nil {
		return err
	}

	// 3. Open data stores
	st, err := openStores(rt)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info("Data stores ready")

	// 4. Build scoring stack
	builder, ranker := buildScoringStack(strat, log)

	// 5. Create backtest engine
	engine := backtest.NewEngine(st.prices, st.sectors, builder, ranker, log.Zerolog())

	// 6. Create snapshot manager
	manager := snapshot.NewManager(st.snaps, st.prices, st.sectors, builder, log.Zerolog())

	// 7. Create handlers
	cache := redis.NewCache(st.redis, "argos")
	rankingHandler := handlers.NewRankingHandler(
		st.prices, st.sectors, builder, ranker,
		strat.Scoring.Thresholds, strat.Universe.Tickers, cache, log)
	snapshotHandler := handlers.NewSnapshotHandler(manager, st.snaps, strat.Universe.Tickers, log)
	backtestHandler := handlers.NewBacktestHandler(engine, strat, hash, log)

	// 8. Create router
	router := api.NewRouter(rankingHandler, snapshotHandler, backtestHandler, log)

	// 9. Create server
	server := api.New(rt.cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/rankings")
	fmt.Println("  GET  /api/snapshots")
	fmt.Println("  POST /api/snapshots/capture")
	fmt.Println("  GET  /api/snapshots/{date}")
	fmt.Println("  POST /api/backtests")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
