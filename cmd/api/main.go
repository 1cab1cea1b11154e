package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csmith1188/digipogs/internal/api"
	"github.com/csmith1188/digipogs/internal/auth"
	"github.com/csmith1188/digipogs/internal/config"
	"github.com/csmith1188/digipogs/internal/db"
	"github.com/csmith1188/digipogs/internal/logger"
	"github.com/csmith1188/digipogs/internal/metrics"
	"github.com/csmith1188/digipogs/internal/rateguard"
	"github.com/csmith1188/digipogs/internal/repository/postgres"
	"github.com/csmith1188/digipogs/internal/services"
	"github.com/csmith1188/digipogs/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	guard := rateguard.New(rateguard.Config{
		MaxAttempts:     cfg.MaxAttempts,
		AttemptWindow:   cfg.AttemptWindow,
		LockoutDuration: cfg.LockoutDuration,
		MinDelay:        cfg.MinDelay,
	})
	go guard.Run(ctx)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)

	userSvc := services.NewUserService(repos.Users, repos.Transactions, tm)
	transferSvc := services.NewTransferService(repos.Users, repos.Pools, repos.Transactions, repos.Ledger, guard, repos.AuditLogs, wp)
	awardSvc := services.NewAwardService(repos.Users, repos.Pools, repos.Classes, repos.Transactions, repos.Ledger, guard, repos.AuditLogs, wp)
	poolSvc := services.NewPoolService(repos.Users, repos.Pools, repos.Transactions, repos.Ledger, guard, repos.AuditLogs, wp, cfg.MaxOwnedPools)

	r := api.NewRouter(api.RouterDeps{
		Cfg:         cfg,
		TM:          tm,
		UserSvc:     userSvc,
		TransferSvc: transferSvc,
		AwardSvc:    awardSvc,
		PoolSvc:     poolSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
