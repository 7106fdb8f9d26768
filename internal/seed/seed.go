package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/biddingerrors"
	users "auction-marketplace/internal/userService"
	"auction-marketplace/utils"
)

// DemoPassword is shared by every seeded account
const DemoPassword = "Password123!"

var demoUsers = []users.RegisterInput{
	{FullName: "Alice", Email: "alice@example.com", NationalID: "DEMO-0001", Role: "bidder"},
	{FullName: "Bob", Email: "bob@example.com", NationalID: "DEMO-0002", Role: "bidder"},
	{FullName: "Charlie", Email: "charlie@example.com", NationalID: "DEMO-0003", Role: "seller"},
}

type demoAuction struct {
	title, description, imageRef string
	startingPrice                int64
	lat, lon                     float64
	closesIn                     time.Duration
}

var demoAuctions = []demoAuction{
	{"Vintage Clock", "A beautiful old clock.", "https://images.unsplash.com/photo-1506744038136-46273834b3fb", 100, 40.7128, -74.0060, 24 * time.Hour},
	{"Antique Vase", "Rare porcelain vase.", "https://images.unsplash.com/photo-1519125323398-675f0ddb6308", 200, 34.0522, -118.2437, 48 * time.Hour},
	{"Painting", "Original oil painting.", "https://images.unsplash.com/photo-1464983953574-0892a716854b", 300, 51.5074, -0.1278, 72 * time.Hour},
	{"Classic Car", "Restored 1960s convertible.", "https://images.unsplash.com/photo-1503736334956-4c8f8e92946d", 5000, 37.7749, -122.4194, 96 * time.Hour},
}

// Populate registers the demo users and, when no auctions exist yet, the demo auctions.
// Users that already exist are skipped so it is safe to run on every start.
func Populate(ctx context.Context, userSvc *users.UserService, auctionSvc *auction.AuctionService, clock utils.Clock) error {
	if clock == nil {
		clock = utils.SystemClock{}
	}

	for _, u := range demoUsers {
		u.Password = DemoPassword
		if _, err := userSvc.Register(ctx, u); err != nil {
			if errors.Is(err, biddingerrors.ErrUserExists) {
				utils.Debug("demo user already present", map[string]any{"email": u.Email})
				continue
			}
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	existing, err := auctionSvc.ListAuctions(ctx)
	if err != nil {
		return fmt.Errorf("seed auctions: %w", err)
	}
	if len(existing) > 0 {
		utils.Info("auctions already present, skipping demo auctions", map[string]any{"count": len(existing)})
		return nil
	}

	now := clock.Now()
	for _, a := range demoAuctions {
		_, err := auctionSvc.CreateAuction(ctx, auction.CreateAuctionInput{
			Title:         a.title,
			Description:   a.description,
			StartingPrice: decimal.NewFromInt(a.startingPrice),
			ImageRef:      a.imageRef,
			Latitude:      a.lat,
			Longitude:     a.lon,
			ClosingTime:   now.Add(a.closesIn),
		})
		if err != nil {
			return fmt.Errorf("seed auction %q: %w", a.title, err)
		}
	}

	utils.Info("demo data seeded", map[string]any{"users": len(demoUsers), "auctions": len(demoAuctions)})
	return nil
}
