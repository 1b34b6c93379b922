package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PesaGate/pesa_api/internal/cache"
	"github.com/PesaGate/pesa_api/internal/config"
	"github.com/PesaGate/pesa_api/internal/database"
	"github.com/PesaGate/pesa_api/internal/handler"
	"github.com/PesaGate/pesa_api/internal/ledger"
	"github.com/PesaGate/pesa_api/internal/middleware"
	"github.com/PesaGate/pesa_api/internal/service"
	"github.com/PesaGate/pesa_api/internal/store"
	"github.com/PesaGate/pesa_api/internal/utils"
	"github.com/PesaGate/pesa_api/internal/worker"
	"github.com/PesaGate/pesa_api/pkg/daraja"
)

// main is the application entrypoint for the PesaGate mobile money gateway.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting pesa api")

	// 3. Setup JWT signing
	utils.SetJWTSecret(cfg.JWTSecret)

	// 4. Open the ledger store selected by LEDGER_DRIVER
	ledgerStore, cleanup, err := openStore(cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Ledger.Driver).Msg("ledger store initialization failed")
		fmt.Fprintf(os.Stderr, "ledger store initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	log.Info().Str("driver", cfg.Ledger.Driver).Msg("ledger store ready")

	// 5. Initialize gateway client
	client := daraja.NewClient(daraja.Config{
		ConsumerKey:       cfg.Daraja.ConsumerKey,
		ConsumerSecret:    cfg.Daraja.ConsumerSecret,
		BusinessShortCode: cfg.Daraja.BusinessShortCode,
		PassKey:           cfg.Daraja.PassKey,
		Environment:       daraja.Environment(cfg.Daraja.Environment),
		InitiatorName:     cfg.Daraja.InitiatorName,
		InitiatorPassword: cfg.Daraja.InitiatorPassword,
		BaseURL:           cfg.Daraja.BaseURL,
	})

	// 6. Initialize ledger and services
	opLedger := ledger.New(ledgerStore, cfg.Ledger.StaleMaxAge)
	operationSvc := service.NewOperationService(client, opLedger)
	callbackSvc := service.NewCallbackService(opLedger)
	authSvc := service.NewAuthService(&cfg.Admin)

	// 7. Initialize handlers
	handlers := &Handlers{
		Operation: handler.NewOperationHandler(operationSvc),
		Webhook:   handler.NewWebhookHandler(callbackSvc),
		Auth:      handler.NewAuthHandler(authSvc),
		Health:    handler.NewHealthHandler(operationSvc, daraja.Environment(cfg.Daraja.Environment), cfg.Ledger.Driver),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()
	loginLimiter := middleware.NewLoginRateLimiter()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, loginLimiter)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewStaleCheckWorker(opLedger, cfg.Ledger.StaleCheckInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Operation *handler.OperationHandler
	Webhook   *handler.WebhookHandler
	Auth      *handler.AuthHandler
	Health    *handler.HealthHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, loginLimiter *middleware.LoginRateLimiter) {
	// Gateway callback endpoints. Unauthenticated: the gateway signs nothing,
	// correlation against the ledger is the only check.
	router.POST("/webhooks/mpesa/result", handlers.Webhook.HandleResult)
	router.POST("/webhooks/mpesa/timeout", handlers.Webhook.HandleTimeout)

	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Admin auth
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", loginLimiter.Handle(), handlers.Auth.Login)

	// Gateway operations (protected)
	mpesa := router.Group("/v1/mpesa")
	mpesa.Use(jwtMiddleware.Handle())
	{
		mpesa.POST("/token", handlers.Operation.GenerateToken)
		mpesa.POST("/stk-push", handlers.Operation.STKPush)
		mpesa.POST("/stk-query", handlers.Operation.STKQuery)
		mpesa.POST("/c2b/register", handlers.Operation.C2BRegister)
		mpesa.POST("/c2b/simulate", handlers.Operation.C2BSimulate)
		mpesa.POST("/b2c", handlers.Operation.B2C)
		mpesa.POST("/b2b", handlers.Operation.B2B)
		mpesa.POST("/balance", handlers.Operation.AccountBalance)
		mpesa.POST("/transaction-status", handlers.Operation.TransactionStatus)
		mpesa.POST("/reversal", handlers.Operation.Reverse)
		mpesa.POST("/qr", handlers.Operation.GenerateQR)
	}

	// Operation ledger (protected)
	operations := router.Group("/v1/operations")
	operations.Use(jwtMiddleware.Handle())
	{
		operations.GET("", handlers.Operation.ListOperations)
		operations.GET("/:id", handlers.Operation.GetOperation)
	}
}

// openStore builds the ledger store for the configured driver and returns a
// cleanup function closing whatever connections it opened.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Ledger.Driver {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil

	case "redis":
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return store.NewRedisStore(redisClient), func() { redisClient.Close() }, nil

	case "postgres":
		db, err := database.Connect(&cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := runMigrations(db.DB); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		log.Info().Msg("migrations completed successfully")
		return store.NewPostgresStore(db), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
