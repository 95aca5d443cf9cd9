package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-escrow-service/config"
	httpHandler "auction-escrow-service/internal/adapter/http/handler"
	pgStorage "auction-escrow-service/internal/adapter/storage/postgres"
	redisStorage "auction-escrow-service/internal/adapter/storage/redis"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/internal/service"
	"auction-escrow-service/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Auction Escrow Service")

	custodyID, err := uuid.Parse(cfg.Auction.CustodyAccountID)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid custody account ID in configuration")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	auctionRepo := pgStorage.NewAuctionRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// The shared custody account must exist before any escrow can move.
	// Create is an upsert, so restarts are safe.
	if err := ledgerRepo.Create(ctx, custodyID); err != nil {
		log.Fatal().Err(err).Msg("Failed to provision custody ledger account")
	}

	// Initialize Redis stores
	allowList := redisStorage.NewAllowListStore(rdb)
	eventPub := redisStorage.NewEventPublisher(rdb, cfg.Auction.EventChannel)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	assetSvc := pgStorage.NewLedgerTransferService(ledgerRepo, transactor, custodyID, log)

	// Initialize business services
	authSvc := service.NewAuthService(accountRepo, ledgerRepo, hashSvc, tokenSvc)
	ledgerSvc := service.NewLedgerService(ledgerRepo, transactor, log)
	auditSvc := service.NewAuditService(auditRepo, log)
	auctionSvc := service.NewAuctionService(
		auctionRepo,
		assetSvc,
		allowList,
		eventPub,
		service.SystemClock{},
		custodyID,
		cfg.Auction.MaxDuration,
		log,
	)

	// Restore auction state before accepting requests
	if err := auctionSvc.LoadAuctions(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore auctions from storage")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		AuctionSvc:     auctionSvc,
		LedgerSvc:      ledgerSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
