package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/utils"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// PostgresRepo implements AuctionDB and UserDB on PostgreSQL.
// Bid admission locks the auction row with SELECT ... FOR UPDATE.
type PostgresRepo struct {
	pool  *pgxpool.Pool
	clock utils.Clock
}

// NewPostgresRepo opens a connection pool and verifies connectivity
func NewPostgresRepo(ctx context.Context, dsn string, maxConns int32, clock utils.Clock) (*PostgresRepo, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &PostgresRepo{pool: pool, clock: clock}, nil
}

// EnsureSchema creates tables and indexes when missing
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases every pooled connection
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrStorageUnavailable, err)
}

// CreateAuction inserts a new auction record
func (r *PostgresRepo) CreateAuction(ctx context.Context, a model.Auction) error {
	id, err := uuid.Parse(a.AuctionID)
	if err != nil {
		return fmt.Errorf("create auction: %w", biddingerrors.NewValidationError("AuctionID", "must be a UUID"))
	}

	const q = `
		INSERT INTO auctions (
			id, title, description, starting_price, image_ref,
			latitude, longitude, closing_time, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.pool.Exec(ctx, q, id, a.Title, a.Description, a.StartingPrice, a.ImageRef,
		a.Latitude, a.Longitude, a.ClosingTime, a.CreatedAt)
	if err != nil {
		return storageErr("create auction "+a.AuctionID, err)
	}
	return nil
}

const auctionColumns = `
	id::text, title, description, starting_price, image_ref,
	latitude, longitude, closing_time, created_at
`

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	err := row.Scan(
		&a.AuctionID,
		&a.Title,
		&a.Description,
		&a.StartingPrice,
		&a.ImageRef,
		&a.Latitude,
		&a.Longitude,
		&a.ClosingTime,
		&a.CreatedAt,
	)
	return a, err
}

// GetAuction returns a single auction
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	id, err := uuid.Parse(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1;`
	a, err := scanAuction(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, storageErr("get auction "+auctionID, err)
	}
	return a, nil
}

// ListAuctions returns every auction, oldest first
func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY created_at ASC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list auctions", err)
	}
	auctions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Auction, error) {
		return scanAuction(row)
	})
	if err != nil {
		return nil, storageErr("list auctions", err)
	}
	return auctions, nil
}

// UpdateAuctionDetails updates title, description, image and location
func (r *PostgresRepo) UpdateAuctionDetails(ctx context.Context, a model.Auction) (model.Auction, error) {
	id, err := uuid.Parse(a.AuctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", a.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	q := `
		UPDATE auctions
		SET title = $2, description = $3, image_ref = $4, latitude = $5, longitude = $6
		WHERE id = $1
		RETURNING ` + auctionColumns + `;`
	updated, err := scanAuction(r.pool.QueryRow(ctx, q, id, a.Title, a.Description, a.ImageRef, a.Latitude, a.Longitude))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("update auction %s: %w", a.AuctionID, biddingerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, storageErr("update auction "+a.AuctionID, err)
	}
	return updated, nil
}

// AppendBid admits a bid inside a transaction holding the auction row lock.
// Nothing is written unless the commit succeeds.
func (r *PostgresRepo) AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	auctionID, err := uuid.Parse(bid.AuctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	bidID, err := uuid.Parse(bid.BidID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid: %w", biddingerrors.NewValidationError("BidID", "must be a UUID"))
	}
	userID, err := uuid.Parse(bid.UserID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid for user %s: %w", bid.UserID, biddingerrors.ErrInvalidBidder)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Bid{}, storageErr("begin bid transaction", err)
	}
	defer tx.Rollback(ctx)

	var (
		startingPrice decimal.Decimal
		closingTime   time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT starting_price, closing_time
		FROM auctions
		WHERE id = $1
		FOR UPDATE;
	`, auctionID).Scan(&startingPrice, &closingTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
		}
		return model.Bid{}, storageErr("lock auction "+bid.AuctionID, err)
	}

	now := r.clock.Now()
	if !now.Before(closingTime) {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionClosed)
	}

	// accepted amounts strictly increase, so the latest bid is the high bid
	high := startingPrice
	createdAt := now.Truncate(time.Microsecond)

	var (
		lastAmount decimal.Decimal
		lastAt     time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`, auctionID).Scan(&lastAmount, &lastAt)
	switch {
	case err == nil:
		high = lastAmount
		if !createdAt.After(lastAt) {
			createdAt = lastAt.Add(time.Microsecond)
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return model.Bid{}, storageErr("read high bid for auction "+bid.AuctionID, err)
	}

	if bid.Amount.LessThanOrEqual(high) {
		return model.Bid{}, fmt.Errorf("append bid for auction %s: %w - current high is %s",
			bid.AuctionID, biddingerrors.ErrBidTooLow, high.String())
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bids (id, auction_id, user_id, bidder_name, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, bidID, auctionID, userID, bid.BidderName, bid.Amount, createdAt)
	if err != nil {
		return model.Bid{}, storageErr("insert bid for auction "+bid.AuctionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Bid{}, storageErr("commit bid for auction "+bid.AuctionID, err)
	}

	bid.CreatedAt = createdAt
	return bid, nil
}

// GetBidsByAuction returns all bids for an auction in acceptance order
func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	// distinguishes an unknown auction from one without bids
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, auction_id::text, user_id::text, bidder_name, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC;
	`, uuid.MustParse(auctionID))
	if err != nil {
		return nil, storageErr("get bids for auction "+auctionID, err)
	}
	bids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Bid, error) {
		var b model.Bid
		err := row.Scan(&b.BidID, &b.AuctionID, &b.UserID, &b.BidderName, &b.Amount, &b.CreatedAt)
		return b, err
	})
	if err != nil {
		return nil, storageErr("get bids for auction "+auctionID, err)
	}
	return bids, nil
}

// CountOpenAuctions counts auctions whose closing time is after at
func (r *PostgresRepo) CountOpenAuctions(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM auctions WHERE closing_time > $1;`, at).Scan(&n); err != nil {
		return 0, storageErr("count open auctions", err)
	}
	return n, nil
}

// CountBids counts every bid in the ledger
func (r *PostgresRepo) CountBids(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bids;`).Scan(&n); err != nil {
		return 0, storageErr("count bids", err)
	}
	return n, nil
}

// SumBidAmounts sums every bid amount in the ledger
func (r *PostgresRepo) SumBidAmounts(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM bids;`).Scan(&sum); err != nil {
		return decimal.Zero, storageErr("sum bid amounts", err)
	}
	return sum, nil
}

const userColumns = `
	id::text, full_name, email, national_id, role, profile_pic, password_hash, created_at
`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID,
		&u.FullName,
		&u.Email,
		&u.NationalID,
		&u.Role,
		&u.ProfilePic,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateUser registers a user; emails are unique case-insensitively
func (r *PostgresRepo) CreateUser(ctx context.Context, u model.User) error {
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return fmt.Errorf("create user: %w", biddingerrors.NewValidationError("UserID", "must be a UUID"))
	}

	const q = `
		INSERT INTO users (
			id, full_name, email, national_id, role, profile_pic, password_hash, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = r.pool.Exec(ctx, q, id, u.FullName, u.Email, u.NationalID, u.Role, u.ProfilePic, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", u.Email, biddingerrors.ErrUserExists)
		}
		return storageErr("create user "+u.Email, err)
	}
	return nil
}

// GetUser returns a user by ID
func (r *PostgresRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}

	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
		}
		return model.User{}, storageErr("get user "+userID, err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email
func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1;`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user by email %s: %w", email, biddingerrors.ErrUserNotFound)
		}
		return model.User{}, storageErr("get user by email", err)
	}
	return u, nil
}

// ListUsers returns every user, oldest first
func (r *PostgresRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC;`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// UpdateUser replaces a user's profile fields, keeping password hash and creation time
func (r *PostgresRepo) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("update user %s: %w", u.UserID, biddingerrors.ErrUserNotFound)
	}

	q := `
		UPDATE users
		SET full_name = $2, email = $3, national_id = $4, role = $5, profile_pic = $6
		WHERE id = $1
		RETURNING ` + userColumns + `;`
	updated, err := scanUser(r.pool.QueryRow(ctx, q, id, u.FullName, u.Email, u.NationalID, u.Role, u.ProfilePic))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("update user %s: %w", u.UserID, biddingerrors.ErrUserNotFound)
		}
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("update user %s: %w", u.UserID, biddingerrors.ErrUserExists)
		}
		return model.User{}, storageErr("update user "+u.UserID, err)
	}
	return updated, nil
}

// DeleteUser removes a user; their bids stay in the ledger
func (r *PostgresRepo) DeleteUser(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return storageErr("delete user "+userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return nil
}

// CountUsers counts registered users
func (r *PostgresRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}
