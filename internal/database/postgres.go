package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/aaronwang/auction-house/internal/engine"
	"github.com/aaronwang/auction-house/internal/models"
)

// PostgresClient wraps the PostgreSQL connection. It implements the
// engine's AuctionStore and BidLedger interfaces; the bids table is
// append-only and the auctions table carries the denormalized
// current-highest cache.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(connStr string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresClient{db: db}, nil
}

// InitSchema creates the necessary database tables
func (c *PostgresClient) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS auctions (
		id VARCHAR(255) PRIMARY KEY,
		seller_id VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(50) NOT NULL DEFAULT 'pending_approval',
		visibility VARCHAR(50) NOT NULL DEFAULT 'public',
		start_price DECIMAL(10, 2) NOT NULL,
		reserve_price DECIMAL(10, 2) DEFAULT 0,
		min_increment DECIMAL(10, 2) NOT NULL,
		current_bid DECIMAL(10, 2) DEFAULT 0,
		current_bidder_id VARCHAR(255) DEFAULT '',
		proxy_enabled BOOLEAN DEFAULT TRUE,
		buy_now_enabled BOOLEAN DEFAULT FALSE,
		buy_now_price DECIMAL(10, 2) DEFAULT 0,
		start_at TIMESTAMP NOT NULL,
		end_at TIMESTAMP NOT NULL,
		extensions INT DEFAULT 0,
		sold_to_id VARCHAR(255) DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bids (
		id VARCHAR(255) PRIMARY KEY,
		auction_id VARCHAR(255) NOT NULL,
		bidder_id VARCHAR(255) NOT NULL,
		amount DECIMAL(10, 2) NOT NULL,
		max_proxy_amount DECIMAL(10, 2),
		is_proxy BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (auction_id) REFERENCES auctions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS bid_events (
		event_id VARCHAR(255) PRIMARY KEY,
		event_type VARCHAR(50) NOT NULL,
		auction_id VARCHAR(255) NOT NULL,
		bid_id VARCHAR(255),
		bidder_id VARCHAR(255) NOT NULL,
		previous_bidder_id VARCHAR(255),
		amount DECIMAL(10, 2),
		is_proxy BOOLEAN DEFAULT FALSE,
		occurred_at TIMESTAMP NOT NULL,
		archived_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bids_auction_id ON bids(auction_id);
	CREATE INDEX IF NOT EXISTS idx_bids_auction_amount ON bids(auction_id, amount DESC, created_at ASC);
	CREATE INDEX IF NOT EXISTS idx_bid_events_auction_id ON bid_events(auction_id);
	`

	_, err := c.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// CreateAuction inserts a new listing.
func (c *PostgresClient) CreateAuction(ctx context.Context, a *models.Auction) error {
	query := `
		INSERT INTO auctions (
			id, seller_id, title, description, status, visibility,
			start_price, reserve_price, min_increment,
			proxy_enabled, buy_now_enabled, buy_now_price,
			start_at, end_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := c.db.ExecContext(ctx, query,
		a.ID, a.SellerID, a.Title, a.Description, a.Status, a.Visibility,
		a.StartPrice, a.ReservePrice, a.MinIncrement,
		a.ProxyEnabled, a.BuyNowEnabled, a.BuyNowPrice,
		a.StartAt, a.EndAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

// GetAuction loads an auction record.
func (c *PostgresClient) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	a := &models.Auction{}
	err := c.db.QueryRowContext(ctx, `
		SELECT id, seller_id, title, COALESCE(description, ''), status, visibility,
		       start_price, reserve_price, min_increment,
		       current_bid, current_bidder_id,
		       proxy_enabled, buy_now_enabled, buy_now_price,
		       start_at, end_at, extensions, sold_to_id, created_at, updated_at
		FROM auctions WHERE id = $1
	`, id).Scan(
		&a.ID, &a.SellerID, &a.Title, &a.Description, &a.Status, &a.Visibility,
		&a.StartPrice, &a.ReservePrice, &a.MinIncrement,
		&a.CurrentBid, &a.CurrentBidderID,
		&a.ProxyEnabled, &a.BuyNowEnabled, &a.BuyNowPrice,
		&a.StartAt, &a.EndAt, &a.Extensions, &a.SoldToID, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrAuctionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query auction: %w", err)
	}
	return a, nil
}

// SetStatus moves a listing between lifecycle states (e.g. approval to live).
func (c *PostgresClient) SetStatus(ctx context.Context, id, status string) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE auctions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return checkFound(result)
}

// SetCurrentBid rewrites the denormalized current-highest cache. The
// WHERE clause keeps current_bid monotonic even if a caller ever reached
// this outside the auction lock.
func (c *PostgresClient) SetCurrentBid(ctx context.Context, id string, amount float64, bidderID string) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE auctions
		SET current_bid = $1, current_bidder_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND current_bid <= $1
	`, amount, bidderID, id)
	if err != nil {
		return fmt.Errorf("failed to update current bid: %w", err)
	}
	return checkFound(result)
}

// SetDeadline advances end_at. Deadlines are only ever extended.
func (c *PostgresClient) SetDeadline(ctx context.Context, id string, endAt time.Time, extensions int) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE auctions
		SET end_at = $1, extensions = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND end_at <= $1
	`, endAt, extensions, id)
	if err != nil {
		return fmt.Errorf("failed to extend deadline: %w", err)
	}
	return checkFound(result)
}

// MarkSold ends a live auction through the buy-now path.
func (c *PostgresClient) MarkSold(ctx context.Context, id, buyerID string, price float64) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE auctions
		SET status = $1, sold_to_id = $2, current_bid = $3, current_bidder_id = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5 AND sold_to_id = ''
	`, models.StatusEnded, buyerID, price, id, models.StatusLive)
	if err != nil {
		return fmt.Errorf("failed to mark sold: %w", err)
	}
	return checkFound(result)
}

// InsertBid appends a row to the bid ledger. Rows are immutable once
// written; validation happened under the auction lock before this call.
func (c *PostgresClient) InsertBid(ctx context.Context, bid *models.Bid) error {
	var maxProxy sql.NullFloat64
	if bid.HasCeiling() {
		maxProxy = sql.NullFloat64{Float64: bid.MaxProxy, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO bids (id, auction_id, bidder_id, amount, max_proxy_amount, is_proxy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, maxProxy, bid.IsProxy, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// HighestBid returns the ledger row with the greatest amount, ties broken
// by earliest created_at, or nil when no bids exist.
func (c *PostgresClient) HighestBid(ctx context.Context, auctionID string) (*models.Bid, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, auction_id, bidder_id, amount, max_proxy_amount, is_proxy, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`, auctionID)

	bid, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query highest bid: %w", err)
	}
	return bid, nil
}

// TopProxyBids returns at most n standing ceilings, one per bidder,
// ordered by (max_proxy_amount DESC, created_at ASC). Per bidder the row
// kept is their highest ceiling with its earliest declaration, so equal
// ceilings resolve to whoever committed at that price first.
func (c *PostgresClient) TopProxyBids(ctx context.Context, auctionID string, n int) ([]models.Bid, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, auction_id, bidder_id, amount, max_proxy_amount, is_proxy, created_at
		FROM (
			SELECT DISTINCT ON (bidder_id)
			       id, auction_id, bidder_id, amount, max_proxy_amount, is_proxy, created_at
			FROM bids
			WHERE auction_id = $1 AND max_proxy_amount IS NOT NULL
			ORDER BY bidder_id, max_proxy_amount DESC, created_at ASC
		) standing
		ORDER BY max_proxy_amount DESC, created_at ASC
		LIMIT $2
	`, auctionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query proxy ceilings: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// BidHistory returns the ledger for an auction, newest first.
func (c *PostgresClient) BidHistory(ctx context.Context, auctionID string, limit int) ([]models.Bid, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, auction_id, bidder_id, amount, max_proxy_amount, is_proxy, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// InsertBidEvent archives a published event for activity/notification
// consumers. Duplicate deliveries from JetStream are absorbed.
func (c *PostgresClient) InsertBidEvent(ctx context.Context, event *models.BidEvent) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO bid_events (event_id, event_type, auction_id, bid_id, bidder_id, previous_bidder_id, amount, is_proxy, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`,
		event.EventID, event.Type, event.AuctionID, event.BidID,
		event.BidderID, event.PreviousBidderID, event.Amount, event.IsProxy, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBid(row rowScanner) (*models.Bid, error) {
	bid := &models.Bid{}
	var maxProxy sql.NullFloat64
	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&bid.Amount,
		&maxProxy,
		&bid.IsProxy,
		&bid.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxProxy.Valid {
		bid.MaxProxy = maxProxy.Float64
	}
	return bid, nil
}

func collectBids(rows *sql.Rows) ([]models.Bid, error) {
	var bids []models.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, *bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bids: %w", err)
	}
	return bids, nil
}

func checkFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return engine.ErrAuctionNotFound
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	return c.db.Close()
}
