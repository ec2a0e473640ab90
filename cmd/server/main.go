// Package main implements the server entry point for the broker
// authentication and authorization backend. It wires the pipeline —
// IdentityResolver, TokenVerifier, AuthDataSource, ResourceClassifier,
// PolicyEngine, HTTPFrontend — by constructor injection and runs it behind
// chi with graceful shutdown, following the same bootstrap shape the
// teacher uses for its own clean-architecture wiring.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aras-services/broker-auth/config"
	httpfrontend "github.com/aras-services/broker-auth/internal/delivery/http"
	"github.com/aras-services/broker-auth/internal/authdb/postgres"
	"github.com/aras-services/broker-auth/internal/identity"
	"github.com/aras-services/broker-auth/internal/policy"
	"github.com/aras-services/broker-auth/internal/resource"
	"github.com/aras-services/broker-auth/internal/token"
)

func main() {
	overridePath := flag.String("config", "", "optional YAML file overriding the shared-infrastructure resource list")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.LoadOverrides(cfg, *overridePath); err != nil {
		log.Fatalf("failed to load config overrides: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		logger.Fatal("failed to parse database DSN", zap.Error(err))
	}
	poolConfig.MaxConns = cfg.Database.PoolMaxConns
	poolConfig.MinConns = cfg.Database.PoolMinConns
	poolConfig.MaxConnLifetime = cfg.Database.PoolMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.PoolMaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.Database.PoolHealthCheckEvery

	db, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to auth database",
		zap.Int32("pool_max_conns", cfg.Database.PoolMaxConns),
		zap.Duration("pool_health_check_period", cfg.Database.PoolHealthCheckEvery),
	)

	source := postgres.New(db, cfg.Policy.PushExchangePrefix)
	verifier := token.NewVerifier(cfg.Token.ServerSecret)
	resolver := identity.New(source, verifier)
	classifier := resource.New(cfg.Policy)
	engine := policy.New()
	frontend := httpfrontend.NewFrontend(resolver, classifier, engine, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Request.Timeout))

	frontend.Routes(r)

	server := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	go func() {
		logger.Info("starting broker auth server", zap.String("addr", cfg.GetServerAddr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
