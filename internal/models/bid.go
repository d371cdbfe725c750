package models

import "time"

// Bid represents a single row in the append-only bid ledger. Rows are
// written once by the placement pipeline and never updated or deleted.
type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	MaxProxy  float64   `json:"max_proxy_amount,omitempty"` // 0 = no standing ceiling
	IsProxy   bool      `json:"is_proxy"`
	CreatedAt time.Time `json:"created_at"`
}

// HasCeiling reports whether this row carries a standing proxy ceiling.
func (b *Bid) HasCeiling() bool {
	return b.MaxProxy > 0
}

// BidRequest represents the incoming bid submission from the API
type BidRequest struct {
	BidderID string  `json:"bidder_id"`
	Amount   float64 `json:"amount"`
	MaxProxy float64 `json:"max_proxy_amount,omitempty"`
}

// RejectionReason identifies why a bid was refused. Rejections are
// expected, synchronous and user-facing; they are never retried.
type RejectionReason string

const (
	RejectAuctionNotLive  RejectionReason = "auction_not_live"
	RejectAccessDenied    RejectionReason = "access_denied"
	RejectSellerCannotBid RejectionReason = "seller_cannot_bid"
	RejectAlreadyHighest  RejectionReason = "already_highest"
	RejectBidExceedsLimit RejectionReason = "bid_exceeds_limit"
	RejectAuctionEnded    RejectionReason = "auction_ended"
	RejectBidTooLow       RejectionReason = "bid_too_low"
)

// BidResponse represents the API response after a bid submission
type BidResponse struct {
	Accepted        bool            `json:"accepted"`
	Reason          RejectionReason `json:"reason,omitempty"`
	Message         string          `json:"message,omitempty"`
	BidID           string          `json:"bid_id,omitempty"`
	Amount          float64         `json:"amount,omitempty"`
	CurrentBid      float64         `json:"current_bid"`
	CurrentBidderID string          `json:"current_bidder_id,omitempty"`
	EndAt           time.Time       `json:"end_at,omitempty"`
}
