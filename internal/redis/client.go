package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis with auction-specific operations: the denormalized
// snapshot cache for lock-free display reads, Pub/Sub event publishing
// for the broadcast service, and restricted-auction membership sets.
// The cache is write-through from inside the placement critical section,
// so readers tolerate only the brief staleness the write path allows.
type Client struct {
	client *redis.Client
}

// Snapshot is the cached display state of an auction.
type Snapshot struct {
	AuctionID       string    `json:"auction_id"`
	CurrentBid      float64   `json:"current_bid"`
	CurrentBidderID string    `json:"current_bidder_id,omitempty"`
	EndAt           time.Time `json:"end_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

// StoreSnapshot writes the current-highest snapshot for an auction.
func (c *Client) StoreSnapshot(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("auction:%s:snapshot", snap.AuctionID)
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetSnapshot reads the cached display state for an auction. Returns
// nil when nothing is cached (caller falls back to the database).
func (c *Client) GetSnapshot(ctx context.Context, auctionID string) (*Snapshot, error) {
	key := fmt.Sprintf("auction:%s:snapshot", auctionID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// PublishBidEvent publishes a bid event to Redis Pub/Sub.
// This is picked up by the broadcast service for real-time WebSocket updates.
func (c *Client) PublishBidEvent(ctx context.Context, auctionID string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("auction_events:%s", auctionID)
	return c.client.Publish(ctx, channel, eventJSON).Err()
}

// IsAuctionMember checks restricted-auction group membership.
// Membership sets are maintained by the external membership subsystem
// under "auction:{id}:bidders".
func (c *Client) IsAuctionMember(ctx context.Context, auctionID, bidderID string) (bool, error) {
	key := fmt.Sprintf("auction:%s:bidders", auctionID)
	ok, err := c.client.SIsMember(ctx, key, bidderID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// AddAuctionMember grants a bidder access to a restricted auction.
func (c *Client) AddAuctionMember(ctx context.Context, auctionID, bidderID string) error {
	key := fmt.Sprintf("auction:%s:bidders", auctionID)
	return c.client.SAdd(ctx, key, bidderID).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
