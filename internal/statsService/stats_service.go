package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

// StatsService computes dashboard aggregates on demand
type StatsService struct {
	auctions repository.AuctionDB
	users    repository.UserDB
	clock    utils.Clock
}

// NewStatsService creates a new StatsService instance
func NewStatsService(auctions repository.AuctionDB, users repository.UserDB, clock utils.Clock) *StatsService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &StatsService{auctions: auctions, users: users, clock: clock}
}

// GetStats reads every aggregate concurrently. A single failed read fails the call.
func (s *StatsService) GetStats(ctx context.Context) (models.Stats, error) {
	var (
		stats models.Stats
		now   = s.clock.Now()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.CountUsers(gctx)
		return wrapRead("count users", err)
	})
	g.Go(func() (err error) {
		stats.OpenAuctions, err = s.auctions.CountOpenAuctions(gctx, now)
		return wrapRead("count open auctions", err)
	})
	g.Go(func() (err error) {
		stats.TotalBids, err = s.auctions.CountBids(gctx)
		return wrapRead("count bids", err)
	})
	g.Go(func() (err error) {
		var sum decimal.Decimal
		sum, err = s.auctions.SumBidAmounts(gctx)
		stats.TotalRevenue = sum
		return wrapRead("sum bid amounts", err)
	})

	if err := g.Wait(); err != nil {
		metrics.StatsFailuresTotal.Inc()
		utils.Error("stats aggregation failed", map[string]any{"error": err.Error()})
		return models.Stats{}, fmt.Errorf("service: %w: %w", biddingerrors.ErrAggregationFailed, err)
	}
	return stats, nil
}

func wrapRead(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
