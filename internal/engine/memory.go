package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aaronwang/auction-house/internal/models"
)

// MemoryStore is an in-process AuctionStore + BidLedger. It backs unit
// tests and local development without PostgreSQL; the engine holds the
// per-auction lock, so the internal mutex only guards the maps against
// cross-auction access.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]*models.Auction
	bids     map[string][]models.Bid // auctionID -> insertion order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]*models.Auction),
		bids:     make(map[string][]models.Bid),
	}
}

// PutAuction adds or replaces an auction record.
func (m *MemoryStore) PutAuction(a *models.Auction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.auctions[a.ID] = &cp
}

func (m *MemoryStore) GetAuction(_ context.Context, id string) (*models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) SetCurrentBid(_ context.Context, id string, amount float64, bidderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return ErrAuctionNotFound
	}
	a.CurrentBid = amount
	a.CurrentBidderID = bidderID
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) SetDeadline(_ context.Context, id string, endAt time.Time, extensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return ErrAuctionNotFound
	}
	a.EndAt = endAt
	a.Extensions = extensions
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) MarkSold(_ context.Context, id, buyerID string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return ErrAuctionNotFound
	}
	a.Status = models.StatusEnded
	a.SoldToID = buyerID
	a.CurrentBid = price
	a.CurrentBidderID = buyerID
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) InsertBid(_ context.Context, bid *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[bid.AuctionID] = append(m.bids[bid.AuctionID], *bid)
	return nil
}

func (m *MemoryStore) HighestBid(_ context.Context, auctionID string) (*models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *models.Bid
	rows := m.bids[auctionID]
	for i := range rows {
		b := &rows[i]
		// Ties go to the earliest row; insertion order is creation order.
		if best == nil || b.Amount > best.Amount {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *MemoryStore) TopProxyBids(_ context.Context, auctionID string, n int) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Per bidder: the row declaring their highest ceiling, keeping the
	// earliest such row so equal ceilings resolve to first-committed.
	perBidder := make(map[string]models.Bid)
	for _, b := range m.bids[auctionID] {
		if !b.HasCeiling() {
			continue
		}
		cur, ok := perBidder[b.BidderID]
		if !ok || b.MaxProxy > cur.MaxProxy {
			perBidder[b.BidderID] = b
		}
	}

	out := make([]models.Bid, 0, len(perBidder))
	for _, b := range perBidder {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxProxy != out[j].MaxProxy {
			return out[i].MaxProxy > out[j].MaxProxy
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) BidHistory(_ context.Context, auctionID string, limit int) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.bids[auctionID]
	out := make([]models.Bid, len(rows))
	copy(out, rows)
	// Newest first, as the API serves it.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
