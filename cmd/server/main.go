// ============================================================================
// MAIN.GO - APPLICATION ENTRY POINT
// ============================================================================
// Startup flow:
//   config -> logger -> link store backend -> telemetry -> service -> HTTP
//
// The HTTP server and the telemetry worker run side by side in an errgroup.
// SIGINT/SIGTERM cancels both; the server drains in-flight requests and the
// worker gets one last chance to flush queued events.
// ============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"shortlink/internal/config"
	httpHandler "shortlink/internal/handler/http"
	"shortlink/internal/repository"
	"shortlink/internal/repository/memory"
	"shortlink/internal/repository/postgres"
	redisrepo "shortlink/internal/repository/redis"
	"shortlink/internal/service"
	"shortlink/internal/shortcode"
	"shortlink/internal/telemetry"
	"shortlink/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ========================================================================
	// STEP 1: CONFIGURATION AND LOGGING
	// ========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting shortlink",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// STEP 2: LINK STORE
	// ========================================================================
	links, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	// ========================================================================
	// STEP 3: DEPENDENCY INJECTION
	// ========================================================================
	// Store -> ClickRecorder -> LinkService -> Handler
	var events telemetry.Emitter = telemetry.Nop{}
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Endpoint != "" {
		telemetryClient = telemetry.NewClient(telemetry.Config{
			Endpoint:   cfg.Telemetry.Endpoint,
			Stack:      cfg.Telemetry.Stack,
			Timeout:    cfg.Telemetry.Timeout,
			BufferSize: cfg.Telemetry.BufferSize,
		}, appLogger.Logger)
		events = telemetryClient
		appLogger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	gen, err := shortcode.NewGenerator(shortcode.Base36, cfg.App.CodeLength)
	if err != nil {
		log.Fatalf("Failed to build code generator: %v", err)
	}

	recorder := service.NewClickRecorder(links, nil, cfg.App.DefaultLocation, appLogger.Logger)
	linkService := service.NewLinkService(links, recorder, service.Options{
		Generator:       gen,
		MaxAttempts:     cfg.App.MaxAttempts,
		DefaultValidity: cfg.App.DefaultValidity,
		Telemetry:       events,
		Logger:          appLogger.Logger,
	})

	handler := httpHandler.NewHandler(linkService, appLogger.Logger, cfg.App.BaseURL, cfg.App.HomeURL)

	// ========================================================================
	// STEP 4: ROUTES AND MIDDLEWARE
	// ========================================================================
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.Routes(mux)

	// Request -> Recovery -> RequestID -> Logging -> Metrics -> CORS -> Handler
	finalHandler := httpHandler.Chain(
		httpHandler.RecoveryMiddleware(appLogger.Logger),
		httpHandler.RequestIDMiddleware,
		httpHandler.LoggingMiddleware(appLogger.Logger),
		httpHandler.MetricsMiddleware,
		httpHandler.CORSMiddleware,
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// ========================================================================
	// STEP 5: RUN UNTIL SIGNALLED
	// ========================================================================
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if telemetryClient != nil {
		g.Go(func() error {
			return telemetryClient.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		appLogger.Error("Server exited with error", "error", err)
		closeStore()
		log.Fatalf("%v", err)
	}

	appLogger.Info("Server exited gracefully")
}

// openStore connects the configured backend and returns it with its cleanup func
func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (repository.LinkRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.InitDB(
			ctx,
			cfg.Database.DatabaseDSN(),
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		appLogger.Info("Database connection established")
		return postgres.NewLinkRepository(db), db.Close, nil

	case config.BackendRedis:
		client, err := redisrepo.InitRedis(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info("Redis connection established", "addr", cfg.Redis.RedisAddr())
		return redisrepo.NewLinkRepository(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	default:
		return memory.NewLinkRepository(), func() {}, nil
	}
}
