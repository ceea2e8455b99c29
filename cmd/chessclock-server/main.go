// Package main implements the chess clock server: a RESTful API hosting
// many two-player clocks with optional SQLite persistence and NATS events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chessclock/cmd/chessclock-server/cli"
	"chessclock/internal/server/config"
	"chessclock/internal/server/events"
	"chessclock/internal/server/http"
	"chessclock/internal/server/processor"
	"chessclock/internal/server/service"
	"chessclock/internal/server/storage"
	"chessclock/internal/server/timecontrol"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		apiHost     = flag.String("api-host", "", "API server host (overrides config)")
		apiPort     = flag.Int("api-port", 0, "API server port (overrides config)")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, console logs)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (overrides config)")
		natsURL     = flag.String("nats-url", "", "Publish clock events to this NATS server (overrides config)")
		logLevel    = flag.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
		pidPath     = flag.String("pid", "", "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment
	if *apiHost != "" {
		cfg.API.Host = *apiHost
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}
	if *dev {
		cfg.Dev = true
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *natsURL != "" {
		cfg.Events.NATS.Enabled = true
		cfg.Events.NATS.URL = *natsURL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *pidPath != "" {
		cfg.PID.Path = *pidPath
	}
	if *pidLock {
		cfg.PID.Lock = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	if err := run(cfg, quit); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// run starts every component and serves until quit fires. Startup errors
// return through the deferred cleanups, so the PID file never outlives it.
func run(cfg config.Config, quit <-chan os.Signal) error {
	if cfg.PID.Path != "" {
		cleanup, err := managePIDFile(cfg.PID.Path, cfg.PID.Lock)
		if err != nil {
			return fmt.Errorf("failed to manage PID file: %w", err)
		}
		defer cleanup()
		log.Info().Str("path", cfg.PID.Path).Bool("lock", cfg.PID.Lock).Msg("PID file created")
	}

	// 1. Storage (optional)
	var store *storage.Store
	if cfg.Storage.Path != "" {
		log.Info().Str("path", cfg.Storage.Path).Msg("initializing persistent storage")
		var err error
		store, err = storage.NewStore(cfg.Storage.Path, cfg.Dev)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close storage cleanly")
			}
		}()
		if err := store.InitDB(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	} else {
		log.Info().Msg("persistent storage disabled (use -storage-path to enable)")
	}

	// 2. Event observers
	observers := events.Multi{events.LogObserver{}}
	if cfg.Events.NATS.Enabled {
		nats, err := events.ConnectNATS(cfg.Events.NATS)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Events.NATS.URL, err)
		}
		defer nats.Close()
		observers = append(observers, nats)
		log.Info().Str("url", cfg.Events.NATS.URL).Str("prefix", cfg.Events.NATS.SubjectPrefix).Msg("publishing clock events")
	}

	// 3. Service over the fixed catalog
	svc := service.New(timecontrol.New(), service.Options{
		Store:     store,
		Observer:  observers,
		MaxClocks: cfg.Clocks.Max,
		IdleTTL:   cfg.Clocks.IdleTTL,
	})

	if n, err := svc.RestoreClocks(); err != nil {
		log.Error().Err(err).Msg("failed to restore clocks")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("restored clocks from storage")
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go svc.RunCleanupJob(cleanupCtx, cfg.Clocks.CleanupInterval)

	// 4. Processor and HTTP
	proc := processor.New(svc)
	app := http.NewFiberApp(proc, svc, cfg.Dev)

	apiAddr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)

	go func() {
		log.Info().
			Str("addr", "http://"+apiAddr).
			Bool("dev", cfg.Dev).
			Int("max_clocks", cfg.Clocks.Max).
			Str("storage", svc.GetStorageHealth()).
			Msg("chess clock API server starting")

		if err := app.Listen(apiAddr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	// Release long-poll waiters first so in-flight requests can finish
	cleanupCancel()
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("service shutdown error")
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if store != nil {
		if err := store.Flush(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("pending storage writes not flushed")
		}
	}

	log.Info().Msg("server exited")
	return nil
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Dev || cfg.Log.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
