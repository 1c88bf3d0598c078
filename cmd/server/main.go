package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-billing/internal/ai"
	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/handlers"
	"go-pos-billing/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.WithField("field", "database").Fatal(err.Error())
	}
	ledger := database.NewLedger(db)

	revocations, rdb := revocationStore(sigCtx, cfg.Redis, logger)
	provider := auth.NewProvider(database.NewUsers(db), auth.NewTokens(cfg.Server.JWTSecret, cfg.Server.JWTExpiration), revocations)

	if cfg.Server.SeedAdminEmail != "" {
		created, err := provider.EnsureAdmin(sigCtx, cfg.Server.SeedAdminEmail, cfg.Server.SeedAdminPassword)
		if err != nil {
			config.LogError(logger, "main", "EnsureAdmin", cfg.Server.SeedAdminEmail, nil, err)
		} else if created {
			logger.WithField("email", cfg.Server.SeedAdminEmail).Info("admin user seeded")
		}
	}

	bills := billing.NewService(ledger, billing.Options{
		Mode:     billing.CommitMode(cfg.Billing.CommitMode),
		Policy:   billing.StockPolicy(cfg.Billing.StockPolicy),
		Location: cfg.Billing.Location,
		Logger:   logger.WithField("module", "billing"),
	})

	deps := handlers.Deps{
		Store:             ledger,
		Billing:           bills,
		Carts:             cart.NewStore(),
		Auth:              provider,
		Logger:            logger,
		Location:          cfg.Billing.Location,
		LowStockThreshold: cfg.Billing.LowStockThreshold,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// --- FEATURE FLAG: Assistant ---
	// Only wired when a Gemini key is configured
	if cfg.AI.GeminiAPIKey != "" {
		agent, err := ai.NewAgent(sigCtx, cfg.AI.GeminiAPIKey, cfg.AI.Model, ai.NewTools(ledger, cfg.Billing.Location), logger)
		if err != nil {
			logger.Warnf("assistant disabled: %v", err)
		} else {
			defer agent.Close()
			deps.Assistant = agent
		}
	}

	h := handlers.New(deps)
	defer h.Close()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CorrelationID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.CorrelationHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Server.AllowRegistration {
		logger.Warn("registration route is OPEN, disable ALLOW_REGISTRATION in production")
	}
	h.Routes(r, cfg.Server.AllowRegistration)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{
		"commit_mode":  cfg.Billing.CommitMode,
		"stock_policy": cfg.Billing.StockPolicy,
		"timezone":     cfg.Billing.TimeZone,
	}).Info("server starting on " + cfg.Server.BaseURL)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("field", "http").Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("field", "http").Error("graceful shutdown failed: " + err.Error())
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// revocationStore shares sign-outs through Redis when configured and reachable.
func revocationStore(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (auth.Revocations, *redis.Client) {
	if cfg.Address == "" {
		return auth.NewMemoryRevocations(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis at %s unreachable, keeping sign-outs in memory: %v", cfg.Address, err)
		_ = rdb.Close()
		return auth.NewMemoryRevocations(), nil
	}
	logger.WithField("addr", cfg.Address).Info("connected to redis")
	return auth.NewRedisRevocations(rdb), rdb
}
