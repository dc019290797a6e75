package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/adapters/vision/gemini"
	"github.com/SscSPs/smartlens_backend/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/SscSPs/smartlens_backend/internal/core/services"
	"github.com/SscSPs/smartlens_backend/internal/handlers"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/SscSPs/smartlens_backend/internal/platform/config"
	"github.com/SscSPs/smartlens_backend/internal/platform/metrics"
	"github.com/SscSPs/smartlens_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/smartlens_backend/internal/repositories/database/sqlite"
	"github.com/SscSPs/smartlens_backend/internal/repositories/memory"
	"github.com/SscSPs/smartlens_backend/internal/utils"
	"github.com/SscSPs/smartlens_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// @title SmartLensOCR Backend API
// @version 1.0
// @description OCR proxy with region detection and a per-user credit ledger.

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token from POST /api/users.

// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
func main() {
	hashAdminToken := flag.String("hash-admin-token", "", "print the bcrypt hash of the given admin token for ADMIN_TOKEN_HASH and exit")
	flag.Parse()

	if *hashAdminToken != "" {
		hash, err := utils.HashSecret(*hashAdminToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to hash admin token:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Debug {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info("Rate limiter counters stored in Redis.")
	}
	lim, err := middleware.NewLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		return err
	}

	// vision stays nil without a key; the OCR endpoints then answer 503.
	var vision clients.VisionClient
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelDetect, cfg.GeminiModelExtract)
		if err != nil {
			return err
		}
		vision = client
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.MetricsMiddleware(m),
		cors.New(cors.Config{
			AllowOrigins:     cfg.FrontendURLs,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.AdminTokenHeader, middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.RateLimit(lim, m),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	serviceContainer := services.NewServiceContainer(cfg, repos, vision, m)
	handlers.RegisterRoutes(r, cfg, serviceContainer, repos.TxManager)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("db_driver", cfg.DBDriver), slog.Bool("vision_enabled", vision != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server shutting down...")
	// Ledger writes run on a detached context; the grace period lets them finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LedgerWriteTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// openRepositories connects the configured store, applies migrations and returns
// the repository provider with a function that releases the connection.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if cfg.RunMigrations {
			logger.Info("Running database migrations...")
			if err := database.RunPostgresMigrations(cfg.DatabaseURL); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		return pgsql.NewRepositoryProvider(pool), func() { database.ClosePgxPool(pool) }, nil

	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		if cfg.RunMigrations {
			logger.Info("Running database migrations...")
			if err := database.RunSQLiteMigrations(db); err != nil {
				database.CloseSQLiteDB(db)
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		return sqlite.NewRepositoryProvider(db), func() { database.CloseSQLiteDB(db) }, nil

	case config.DriverMemory:
		logger.Warn("Using the in-memory store; balances are lost on restart.")
		return memory.NewRepositoryProvider(memory.New()), func() {}, nil
	}
	return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}
