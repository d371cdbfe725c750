package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aaronwang/auction-house/internal/database"
	"github.com/aaronwang/auction-house/internal/engine"
	"github.com/aaronwang/auction-house/internal/models"
	redisClient "github.com/aaronwang/auction-house/internal/redis"
)

var (
	ErrInvalidPrice     = errors.New("start price must be greater than 0")
	ErrInvalidIncrement = errors.New("minimum increment must be greater than 0")
	ErrInvalidDuration  = errors.New("duration must be between 1 and 336 hours")
	ErrInvalidBuyNow    = errors.New("buy now price must exceed the start price")
)

// BiddingService wires the engine to storage, the snapshot cache and the
// HTTP layer. All bid writes go through the engine's per-auction critical
// section; display reads are served from the Redis cache when possible.
type BiddingService struct {
	engine *engine.Engine
	db     *database.PostgresClient
	redis  *redisClient.Client
}

// NewBiddingService creates a new bidding service.
func NewBiddingService(eng *engine.Engine, db *database.PostgresClient, redis *redisClient.Client) *BiddingService {
	return &BiddingService{
		engine: eng,
		db:     db,
		redis:  redis,
	}
}

// PlaceBid runs the placement pipeline and refreshes the display cache
// with the resulting current-highest snapshot.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID string, req *models.BidRequest) (*models.BidResponse, error) {
	resp, err := s.engine.PlaceBid(ctx, auctionID, req)
	if err != nil {
		return nil, err
	}

	if resp.Accepted {
		s.refreshSnapshot(ctx, auctionID, resp.CurrentBid, resp.CurrentBidderID, resp.EndAt)
	}
	return resp, nil
}

// BuyNow ends a live auction immediately at the buy-now price.
func (s *BiddingService) BuyNow(ctx context.Context, auctionID, buyerID string) (*models.Auction, error) {
	auction, err := s.engine.BuyNow(ctx, auctionID, buyerID)
	if err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx, auctionID, auction.CurrentBid, auction.CurrentBidderID, auction.EndAt)
	return auction, nil
}

// CreateAuction records a new listing in pending_approval.
func (s *BiddingService) CreateAuction(ctx context.Context, req *models.CreateAuctionRequest) (*models.Auction, error) {
	if req.StartPrice <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.MinIncrement <= 0 {
		return nil, ErrInvalidIncrement
	}
	if req.DurationHours < 1 || req.DurationHours > 336 {
		return nil, ErrInvalidDuration
	}
	if req.BuyNowEnabled && req.BuyNowPrice <= req.StartPrice {
		return nil, ErrInvalidBuyNow
	}

	visibility := req.Visibility
	if visibility != models.VisibilityRestricted {
		visibility = models.VisibilityPublic
	}

	now := time.Now().UTC()
	auction := &models.Auction{
		ID:            uuid.New().String(),
		SellerID:      req.SellerID,
		Title:         req.Title,
		Description:   req.Description,
		Status:        models.StatusPendingApproval,
		Visibility:    visibility,
		StartPrice:    req.StartPrice,
		ReservePrice:  req.ReservePrice,
		MinIncrement:  req.MinIncrement,
		ProxyEnabled:  req.ProxyEnabled,
		BuyNowEnabled: req.BuyNowEnabled,
		BuyNowPrice:   req.BuyNowPrice,
		StartAt:       now,
		EndAt:         now.Add(time.Duration(req.DurationHours) * time.Hour),
		CreatedAt:     now,
	}

	if err := s.db.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return auction, nil
}

// ActivateAuction flips a pending listing live. Moderation itself lives
// outside this service; this is the hook it calls.
func (s *BiddingService) ActivateAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	if err := s.db.SetStatus(ctx, auctionID, models.StatusLive); err != nil {
		return nil, err
	}
	return s.db.GetAuction(ctx, auctionID)
}

// GetAuction returns the full auction record from the database.
// The reserve price is stripped before this reaches bidders.
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	auction, err := s.db.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	auction.ReservePrice = 0 // hidden
	return auction, nil
}

// GetSnapshot serves the display state for an auction. Read-only and
// lock-free: the Redis cache answers when warm, tolerating the brief
// staleness the write-through allows, with the database as fallback.
func (s *BiddingService) GetSnapshot(ctx context.Context, auctionID string) (*redisClient.Snapshot, error) {
	snap, err := s.redis.GetSnapshot(ctx, auctionID)
	if err != nil {
		fmt.Printf("Warning: snapshot cache read failed: %v\n", err)
	}
	if snap != nil {
		return snap, nil
	}

	auction, err := s.db.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return &redisClient.Snapshot{
		AuctionID:       auction.ID,
		CurrentBid:      auction.CurrentBid,
		CurrentBidderID: auction.CurrentBidderID,
		EndAt:           auction.EndAt,
		UpdatedAt:       auction.UpdatedAt,
	}, nil
}

// BidHistory returns the ledger for an auction, newest first.
func (s *BiddingService) BidHistory(ctx context.Context, auctionID string, limit int) ([]models.Bid, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.db.BidHistory(ctx, auctionID, limit)
}

func (s *BiddingService) refreshSnapshot(ctx context.Context, auctionID string, amount float64, bidderID string, endAt time.Time) {
	snap := &redisClient.Snapshot{
		AuctionID:       auctionID,
		CurrentBid:      amount,
		CurrentBidderID: bidderID,
		EndAt:           endAt,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.redis.StoreSnapshot(ctx, snap); err != nil {
		fmt.Printf("Warning: failed to refresh snapshot cache: %v\n", err)
	}
}
