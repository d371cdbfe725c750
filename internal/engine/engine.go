package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aaronwang/auction-house/internal/config"
	"github.com/aaronwang/auction-house/internal/models"
)

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrBuyNowUnavailable = errors.New("buy now is not available for this auction")
	ErrCannotBuyOwn      = errors.New("cannot buy your own listing")
)

// BidLedger is the append-only bid store. InsertBid does not re-validate
// ordering; the engine holds the auction lock across validation and insert.
type BidLedger interface {
	InsertBid(ctx context.Context, bid *models.Bid) error
	// HighestBid returns the row with the greatest amount, ties broken by
	// earliest created_at, or nil when no bids exist.
	HighestBid(ctx context.Context, auctionID string) (*models.Bid, error)
	// TopProxyBids returns at most n rows, one per bidder (that bidder's
	// current standing ceiling), ordered by ceiling descending then
	// earliest declared. Rows without a ceiling are excluded.
	TopProxyBids(ctx context.Context, auctionID string, n int) ([]models.Bid, error)
	BidHistory(ctx context.Context, auctionID string, limit int) ([]models.Bid, error)
}

// AuctionStore reads and conditionally rewrites auction records.
type AuctionStore interface {
	GetAuction(ctx context.Context, id string) (*models.Auction, error)
	SetCurrentBid(ctx context.Context, id string, amount float64, bidderID string) error
	SetDeadline(ctx context.Context, id string, endAt time.Time, extensions int) error
	MarkSold(ctx context.Context, id, buyerID string, price float64) error
}

// AccessPolicy is the external membership/visibility check. Public
// auctions pass unconditionally; restricted auctions require membership.
type AccessPolicy interface {
	CanBid(ctx context.Context, auction *models.Auction, bidderID string) (bool, error)
}

// EventSink receives BidPlaced/Outbid events. Delivery is best effort;
// implementations log failures rather than surfacing them to the bidder.
type EventSink interface {
	Publish(ctx context.Context, event *models.BidEvent)
}

// SettingsProvider supplies the bidding policy knobs.
type SettingsProvider interface {
	BidPolicy() config.Settings
}

// StaticSettings is a SettingsProvider with fixed values.
type StaticSettings config.Settings

func (s StaticSettings) BidPolicy() config.Settings { return config.Settings(s) }

// Engine runs the bid placement pipeline. Each auction is an independent
// serial resource: a per-auction mutex is held across validate → insert →
// resolve-proxies → extend-deadline, so two bids for the same auction can
// never validate against the same stale snapshot. Different auctions
// proceed in parallel with no coordination.
type Engine struct {
	store    AuctionStore
	ledger   BidLedger
	policy   AccessPolicy
	events   EventSink
	settings SettingsProvider

	locks sync.Map // auctionID -> *sync.Mutex
}

// New creates an Engine.
func New(store AuctionStore, ledger BidLedger, policy AccessPolicy, events EventSink, settings SettingsProvider) *Engine {
	return &Engine{
		store:    store,
		ledger:   ledger,
		policy:   policy,
		events:   events,
		settings: settings,
	}
}

func (e *Engine) lockFor(auctionID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(auctionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// PlaceBid validates and executes a bid submission. Validation failures
// come back as a rejected BidResponse; an error means a storage failure,
// in which case no state was changed past the failing write.
func (e *Engine) PlaceBid(ctx context.Context, auctionID string, req *models.BidRequest) (*models.BidResponse, error) {
	mu := e.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}

	settings := e.settings.BidPolicy()

	if auction.Status != models.StatusLive {
		return reject(auction, models.RejectAuctionNotLive), nil
	}

	allowed, err := e.policy.CanBid(ctx, auction, req.BidderID)
	if err != nil {
		return nil, fmt.Errorf("access policy check failed: %w", err)
	}
	if !allowed {
		return reject(auction, models.RejectAccessDenied), nil
	}

	if reason := validateBid(auction, settings, req, time.Now().UTC()); reason != "" {
		return reject(auction, reason), nil
	}

	now := time.Now().UTC()
	bid := &models.Bid{
		ID:        uuid.New().String(),
		AuctionID: auction.ID,
		BidderID:  req.BidderID,
		Amount:    req.Amount,
		CreatedAt: now,
	}
	if standingCeiling(auction, req) {
		// The engine bids the minimum necessary on the bidder's behalf;
		// the declared maximum stays on the row as the standing ceiling.
		bid.Amount = maxAmount(req.Amount, requiredMinimum(auction))
		bid.MaxProxy = req.MaxProxy
		bid.IsProxy = true
	}

	if err := e.accept(ctx, auction, settings, bid); err != nil {
		return nil, err
	}

	e.resolveProxies(ctx, auction, settings)

	return &models.BidResponse{
		Accepted:        true,
		BidID:           bid.ID,
		Amount:          bid.Amount,
		CurrentBid:      auction.CurrentBid,
		CurrentBidderID: auction.CurrentBidderID,
		EndAt:           auction.EndAt,
	}, nil
}

// accept commits one bid: ledger insert first, then the denormalized
// update, events and the deadline-extension check. A failed insert leaves
// no partial state behind.
func (e *Engine) accept(ctx context.Context, auction *models.Auction, settings config.Settings, bid *models.Bid) error {
	if err := e.ledger.InsertBid(ctx, bid); err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	previous := auction.CurrentBidderID
	if err := e.store.SetCurrentBid(ctx, auction.ID, bid.Amount, bid.BidderID); err != nil {
		return fmt.Errorf("failed to update current bid: %w", err)
	}
	auction.CurrentBid = bid.Amount
	auction.CurrentBidderID = bid.BidderID

	if previous != "" && previous != bid.BidderID {
		e.events.Publish(ctx, &models.BidEvent{
			EventID:          uuid.New().String(),
			Type:             models.EventOutbid,
			AuctionID:        auction.ID,
			BidderID:         bid.BidderID,
			PreviousBidderID: previous,
			Amount:           bid.Amount,
			Timestamp:        bid.CreatedAt,
		})
	}
	e.events.Publish(ctx, &models.BidEvent{
		EventID:   uuid.New().String(),
		Type:      models.EventBidPlaced,
		AuctionID: auction.ID,
		BidID:     bid.ID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		IsProxy:   bid.IsProxy,
		Timestamp: bid.CreatedAt,
	})

	if newEnd := extendedDeadline(auction, bid.CreatedAt, settings.AntiSnipingMinutes, settings.MaxDeadlineExtensions); !newEnd.IsZero() {
		if err := e.store.SetDeadline(ctx, auction.ID, newEnd, auction.Extensions+1); err != nil {
			return fmt.Errorf("failed to extend deadline: %w", err)
		}
		auction.EndAt = newEnd
		auction.Extensions++
	}

	return nil
}

// resolveProxies applies the pure resolver step until a fixed point or
// the round bound, committing each automatic counter-bid through the same
// accept path as manual bids. Runs inside the caller's critical section.
// Failures here are logged, never surfaced: the triggering bid was
// already accepted, and the next bid re-triggers resolution.
func (e *Engine) resolveProxies(ctx context.Context, auction *models.Auction, settings config.Settings) {
	for round := 0; round < maxResolveRounds; round++ {
		snap, err := e.snapshot(ctx, auction)
		if err != nil {
			fmt.Printf("[RESOLVER] auction %s: snapshot failed: %v\n", auction.ID, err)
			return
		}

		next := Resolve(snap)
		if next == nil {
			return
		}

		auto := &models.Bid{
			ID:        uuid.New().String(),
			AuctionID: auction.ID,
			BidderID:  next.BidderID,
			Amount:    next.Amount,
			MaxProxy:  next.Ceiling,
			IsProxy:   true,
			CreatedAt: time.Now().UTC(),
		}
		if err := e.accept(ctx, auction, settings, auto); err != nil {
			fmt.Printf("[RESOLVER] auction %s: auto-bid failed: %v\n", auction.ID, err)
			return
		}
	}

	// Bound reached: report if the auction is left short of a fixed point.
	if snap, err := e.snapshot(ctx, auction); err == nil && Resolve(snap) != nil {
		fmt.Printf("[RESOLVER] auction %s: round bound reached before fixed point; next bid re-triggers resolution\n", auction.ID)
	}
}

func (e *Engine) snapshot(ctx context.Context, auction *models.Auction) (Snapshot, error) {
	highest, err := e.ledger.HighestBid(ctx, auction.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read highest bid: %w", err)
	}
	ceilings, err := e.ledger.TopProxyBids(ctx, auction.ID, 2)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read proxy ceilings: %w", err)
	}
	return Snapshot{
		Highest:      highest,
		Ceilings:     ceilings,
		StartPrice:   auction.StartPrice,
		MinIncrement: auction.MinIncrement,
	}, nil
}

// BuyNow short-circuits a live auction straight to ended with a winner at
// the buy-now price. Refused once the auction is ended/closed or already
// sold.
func (e *Engine) BuyNow(ctx context.Context, auctionID, buyerID string) (*models.Auction, error) {
	mu := e.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}

	if auction.Status != models.StatusLive || auction.SoldToID != "" {
		return nil, ErrBuyNowUnavailable
	}
	if !auction.BuyNowEnabled || auction.BuyNowPrice <= 0 {
		return nil, ErrBuyNowUnavailable
	}
	if buyerID == auction.SellerID {
		return nil, ErrCannotBuyOwn
	}

	if err := e.store.MarkSold(ctx, auctionID, buyerID, auction.BuyNowPrice); err != nil {
		return nil, fmt.Errorf("failed to mark auction sold: %w", err)
	}
	auction.Status = models.StatusEnded
	auction.SoldToID = buyerID
	auction.CurrentBid = auction.BuyNowPrice
	auction.CurrentBidderID = buyerID

	return auction, nil
}

func reject(auction *models.Auction, reason models.RejectionReason) *models.BidResponse {
	return &models.BidResponse{
		Accepted:        false,
		Reason:          reason,
		Message:         rejectionMessage(reason, auction),
		CurrentBid:      auction.CurrentBid,
		CurrentBidderID: auction.CurrentBidderID,
		EndAt:           auction.EndAt,
	}
}

func rejectionMessage(reason models.RejectionReason, auction *models.Auction) string {
	switch reason {
	case models.RejectAuctionNotLive:
		return "Auction is not live"
	case models.RejectAccessDenied:
		return "You are not allowed to bid on this auction"
	case models.RejectSellerCannotBid:
		return "Sellers cannot bid on their own listings"
	case models.RejectAlreadyHighest:
		return "You already hold the highest bid"
	case models.RejectBidExceedsLimit:
		return "Bid exceeds the configured maximum"
	case models.RejectAuctionEnded:
		return "Auction has already ended"
	case models.RejectBidTooLow:
		return fmt.Sprintf("Bid too low. Minimum bid is $%.2f", requiredMinimum(auction))
	}
	return string(reason)
}
