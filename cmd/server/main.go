/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the FocusBridge reward engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, then flag overrides)
  2. Configure structured logging
  3. Initialize SQLite store and canonical clock
  4. Build the achievement catalog and coordinator
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  Environment variables (flags override):
    PORT       HTTP server port (default: 8080)
    DB_PATH    SQLite database path (default: rewards.db, ":memory:" ok)
    TIMEZONE   Canonical IANA timezone for day boundaries (default: UTC)
    LOG_LEVEL  zerolog level: debug, info, warn, error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rewards.db"

  # Run with in-memory database in Tokyo time
  TIMEZONE=Asia/Tokyo ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/focusbridge/reward-engine/achievement"
	"github.com/focusbridge/reward-engine/api"
	"github.com/focusbridge/reward-engine/store/sqlite"
	"github.com/focusbridge/reward-engine/wallet"
)

type config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"rewards.db"`
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse environment: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path (\":memory:\" for in-memory)")
	timezone := flag.String("tz", cfg.Timezone, "canonical IANA timezone for day boundaries")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	log := newLogger(*logLevel)

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", *timezone).Msg("invalid timezone")
	}
	clock := wallet.NewSystemClock(loc)

	// Initialize store
	store, err := sqlite.New(*dbPath, loc)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize database")
	}
	defer store.Close()

	// Wire the engine
	catalog := achievement.DefaultCatalog()
	ledger := wallet.NewLedger(store, clock)
	balances := wallet.NewBalanceReader(store)
	eval := achievement.NewEvaluator(store, clock)
	coordinator := achievement.NewCoordinator(catalog, eval, ledger, store, clock, log).
		WithProgress(store)

	handler := api.NewHandler(coordinator, ledger, balances, store, clock, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", *port).
			Str("db", *dbPath).
			Str("timezone", loc.String()).
			Int("achievements", len(catalog.List())).
			Msg("reward engine starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
