package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/seed"
	"auction-marketplace/internal/server"
	stats "auction-marketplace/internal/statsService"
	users "auction-marketplace/internal/userService"
	"auction-marketplace/utils"
)

// store is the persistence surface every service draws from
type store interface {
	repository.AuctionDB
	repository.UserDB
}

func main() {
	if err := godotenv.Load(); err != nil {
		utils.Debug("no .env file loaded", map[string]any{"error": err.Error()})
	}

	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := utils.SystemClock{}
	repo, closeRepo, err := openStore(ctx, cfg.Storage, clock)
	if err != nil {
		utils.Fatal("failed to open storage", map[string]any{"driver": cfg.Storage.Driver, "error": err.Error()})
	}
	defer closeRepo()

	userSvc := users.NewUserService(repo, clock)
	auctionSvc := auction.NewAuctionService(repo, clock)
	biddingSvc := bidding.NewBiddingService(repo, userSvc, clock)
	statsSvc := stats.NewStatsService(repo, repo, clock)

	if cfg.SeedDemo {
		if err := seed.Populate(ctx, userSvc, auctionSvc, clock); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	router := server.SetupRouter(server.Services{
		Auctions: auctionSvc,
		Bidding:  biddingSvc,
		Users:    userSvc,
		Stats:    statsSvc,
	}, cfg.Server.RequestTimeout)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "storage": cfg.Storage.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
	}
}

// openStore builds the configured repository and returns its cleanup func
func openStore(ctx context.Context, cfg config.StorageConfig, clock utils.Clock) (store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := repository.NewPostgresRepo(ctx, cfg.DSN, cfg.MaxConns, clock)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return repository.NewMemoryRepo(clock), func() {}, nil
	}
}
