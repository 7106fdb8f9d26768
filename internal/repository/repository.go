package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/utils"
)

// AuctionDB defines the auction record store and bid ledger
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	// UpdateAuctionDetails rewrites descriptive fields only; closing time and
	// starting price are never modified.
	UpdateAuctionDetails(ctx context.Context, auction model.Auction) (model.Auction, error)

	// AppendBid re-checks phase and amount against the current high bid and
	// appends atomically. CreatedAt is assigned by the ledger.
	AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error)
	// GetBidsByAuction returns bids in acceptance order (oldest first)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)

	CountOpenAuctions(ctx context.Context, at time.Time) (int64, error)
	CountBids(ctx context.Context) (int64, error)
	SumBidAmounts(ctx context.Context) (decimal.Decimal, error)
}

// UserDB defines the user registry storage
type UserDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int64, error)
}

// auctionLedger holds one auction and its bids behind a per-auction lock
type auctionLedger struct {
	mu      sync.RWMutex
	auction model.Auction
	bids    []model.Bid
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB and UserDB.
// mu guards the maps only; bid admission locks a single auctionLedger.
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]*auctionLedger // key: auctionID
	users    map[string]model.User     // key: userID
	emails   map[string]string         // key: lower-cased email -> userID
	clock    utils.Clock
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo(clock utils.Clock) *MemoryRepo {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &MemoryRepo{
		auctions: make(map[string]*auctionLedger),
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		clock:    clock,
	}
}

func (r *MemoryRepo) ledger(auctionID string) (*auctionLedger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.auctions[auctionID]
	return l, ok
}

// CreateAuction stores a new auction record
func (r *MemoryRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w", biddingerrors.NewValidationError("AuctionID", "must not be empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.auctions[auction.AuctionID]; exists {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID,
			biddingerrors.NewValidationError("AuctionID", "already exists"))
	}
	r.auctions[auction.AuctionID] = &auctionLedger{auction: auction}
	return nil
}

// GetAuction returns a single auction
func (r *MemoryRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if err := ctx.Err(); err != nil {
		return model.Auction{}, err
	}
	l, ok := r.ledger(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.auction, nil
}

// ListAuctions returns a snapshot of every auction, oldest first
func (r *MemoryRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ledgers := make([]*auctionLedger, 0, len(r.auctions))
	for _, l := range r.auctions {
		ledgers = append(ledgers, l)
	}
	r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(ledgers))
	for _, l := range ledgers {
		l.mu.RLock()
		auctions = append(auctions, l.auction)
		l.mu.RUnlock()
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return auctions, nil
}

// UpdateAuctionDetails updates title, description, image and location
func (r *MemoryRepo) UpdateAuctionDetails(ctx context.Context, auction model.Auction) (model.Auction, error) {
	if err := ctx.Err(); err != nil {
		return model.Auction{}, err
	}
	l, ok := r.ledger(auction.AuctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.auction.Title = auction.Title
	l.auction.Description = auction.Description
	l.auction.ImageRef = auction.ImageRef
	l.auction.Latitude = auction.Latitude
	l.auction.Longitude = auction.Longitude
	return l.auction, nil
}

// AppendBid admits a bid under the auction's lock
func (r *MemoryRepo) AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	l, ok := r.ledger(bid.AuctionID)
	if !ok {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// the caller may have given up while waiting for the lock
	if err := ctx.Err(); err != nil {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, err)
	}

	now := r.clock.Now()
	if !now.Before(l.auction.ClosingTime) {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionClosed)
	}

	// accepted amounts strictly increase, so the last bid is the high bid
	high := l.auction.StartingPrice
	createdAt := now.Truncate(time.Microsecond)
	if n := len(l.bids); n > 0 {
		last := l.bids[n-1]
		high = last.Amount
		if !createdAt.After(last.CreatedAt) {
			createdAt = last.CreatedAt.Add(time.Microsecond)
		}
	}
	if bid.Amount.LessThanOrEqual(high) {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w - current high is %s",
			bid.AuctionID, biddingerrors.ErrBidTooLow, high.String())
	}

	bid.CreatedAt = createdAt
	l.bids = append(l.bids, bid)
	return bid, nil
}

// GetBidsByAuction returns all bids for an auction in acceptance order
func (r *MemoryRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, ok := r.ledger(auctionID)
	if !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Bid(nil), l.bids...), nil
}

// CountOpenAuctions counts auctions whose closing time is after at
func (r *MemoryRepo) CountOpenAuctions(ctx context.Context, at time.Time) (int64, error) {
	auctions, err := r.ListAuctions(ctx)
	if err != nil {
		return 0, err
	}
	var open int64
	for _, a := range auctions {
		if at.Before(a.ClosingTime) {
			open++
		}
	}
	return open, nil
}

// CountBids counts every bid in the ledger
func (r *MemoryRepo) CountBids(ctx context.Context) (int64, error) {
	var total int64
	err := r.eachLedger(ctx, func(l *auctionLedger) {
		total += int64(len(l.bids))
	})
	return total, err
}

// SumBidAmounts sums every bid amount in the ledger
func (r *MemoryRepo) SumBidAmounts(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.eachLedger(ctx, func(l *auctionLedger) {
		for _, b := range l.bids {
			sum = sum.Add(b.Amount)
		}
	})
	return sum, err
}

func (r *MemoryRepo) eachLedger(ctx context.Context, fn func(l *auctionLedger)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.auctions {
		l.mu.RLock()
		fn(l)
		l.mu.RUnlock()
	}
	return nil
}

// CreateUser registers a user; emails are unique case-insensitively
func (r *MemoryRepo) CreateUser(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.emails[key]; taken {
		return fmt.Errorf("create user %s: %w", user.Email, biddingerrors.ErrUserExists)
	}
	if _, taken := r.users[user.UserID]; taken {
		return fmt.Errorf("create user %s: %w", user.UserID, biddingerrors.ErrUserExists)
	}
	r.users[user.UserID] = user
	r.emails[key] = user.UserID
	return nil
}

// GetUser returns a user by ID
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByEmail returns a user by email
func (r *MemoryRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email %s: %w", email, biddingerrors.ErrUserNotFound)
	}
	return r.users[userID], nil
}

// ListUsers returns every user, oldest first
func (r *MemoryRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUser replaces a user's profile fields, keeping password hash and creation time
func (r *MemoryRepo) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.UserID]
	if !ok {
		return model.User{}, fmt.Errorf("update user %s: %w", user.UserID, biddingerrors.ErrUserNotFound)
	}

	oldKey, newKey := strings.ToLower(existing.Email), strings.ToLower(user.Email)
	if oldKey != newKey {
		if _, taken := r.emails[newKey]; taken {
			return model.User{}, fmt.Errorf("update user %s: %w", user.UserID, biddingerrors.ErrUserExists)
		}
		delete(r.emails, oldKey)
		r.emails[newKey] = user.UserID
	}

	existing.FullName = user.FullName
	existing.Email = user.Email
	existing.NationalID = user.NationalID
	existing.Role = user.Role
	existing.ProfilePic = user.ProfilePic
	r.users[user.UserID] = existing
	return existing, nil
}

// DeleteUser removes a user; their bids stay in the ledger
func (r *MemoryRepo) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("delete user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	delete(r.emails, strings.ToLower(user.Email))
	delete(r.users, userID)
	return nil
}

// CountUsers counts registered users
func (r *MemoryRepo) CountUsers(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}
