package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/nestfund/backend/internal/auth"
	"github.com/nestfund/backend/internal/config"
	"github.com/nestfund/backend/internal/invite"
	"github.com/nestfund/backend/internal/notify"
	"github.com/nestfund/backend/internal/pool"
	"github.com/nestfund/backend/internal/repository"
	"github.com/nestfund/backend/internal/router"
	"github.com/nestfund/backend/internal/trust"
	"github.com/nestfund/backend/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pgPool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Engine job enqueue: insert func is set after the River client is
	// created (breaks init cycle).
	var insertMu sync.Mutex
	var insertFn pool.EnqueueTxFunc
	enqueue := func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args, opts)
	}

	// Services
	trustRepo := repository.NewTrustRepo(pgPool)
	trustSvc := trust.NewService(trustRepo)

	walletRepo := repository.NewWalletRepo(pgPool, cfg.Currency)
	walletSvc := wallet.NewService(pgPool, walletRepo)

	inviteRepo := repository.NewInviteRepo(pgPool)
	invites := invite.NewDirectory(inviteRepo, cfg.InviteTTL)

	poolRepo := repository.NewPoolRepo(pgPool)
	cycleRepo := repository.NewCycleRepo(pgPool)
	engine := pool.NewEngine(pgPool, poolRepo, cycleRepo, walletSvc, trustSvc, invites, enqueue, pool.Config{
		Currency:          cfg.Currency,
		MinMembers:        cfg.MinMembers,
		SettlementOffset:  cfg.SettlementOffset,
		DefaultGraceHours: cfg.DefaultGraceHours,
	}, logger)

	// Workers
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewWorker(cfg.NotifySinkURL, logger))
	river.AddWorker(workers, pool.NewOverdueWorker(engine, logger))
	river.AddWorker(workers, trust.NewCycleOutcomeWorker(trustSvc, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pgPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error {
		_, err := riverClient.InsertTx(ctx, tx, args, opts)
		return err
	}
	insertMu.Unlock()

	// Auth
	authRepo := auth.NewRepository(pgPool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", router.New(authHandler))
	RegisterV1Routes(mux, engine, walletSvc, trustSvc, invites, authSvc, cfg.Currency, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	slog.Info("Starting HTTP server", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
