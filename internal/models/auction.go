package models

import "time"

// Auction represents an auction listing. The current_bid/current_bidder
// fields are a denormalized cache of the bid ledger, rewritten together
// with every accepted bid; the ledger stays the source of truth.
type Auction struct {
	ID              string    `json:"id"`
	SellerID        string    `json:"seller_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`     // "pending_approval", "live", "ended", "closed"
	Visibility      string    `json:"visibility"` // "public", "restricted"
	StartPrice      float64   `json:"start_price"`
	ReservePrice    float64   `json:"reserve_price,omitempty"` // 0 = no reserve; never shown to bidders
	MinIncrement    float64   `json:"min_increment"`
	CurrentBid      float64   `json:"current_bid"`
	CurrentBidderID string    `json:"current_bidder_id,omitempty"`
	ProxyEnabled    bool      `json:"proxy_enabled"`
	BuyNowEnabled   bool      `json:"buy_now_enabled"`
	BuyNowPrice     float64   `json:"buy_now_price,omitempty"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	Extensions      int       `json:"extensions"` // times end_at has been pushed out
	SoldToID        string    `json:"sold_to_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Auction status constants
const (
	StatusPendingApproval = "pending_approval"
	StatusLive            = "live"
	StatusEnded           = "ended"
	StatusClosed          = "closed"
)

// Visibility constants
const (
	VisibilityPublic     = "public"
	VisibilityRestricted = "restricted"
)

// CreateAuctionRequest represents an incoming listing submission
type CreateAuctionRequest struct {
	SellerID      string  `json:"seller_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Visibility    string  `json:"visibility"`
	StartPrice    float64 `json:"start_price"`
	ReservePrice  float64 `json:"reserve_price"`
	MinIncrement  float64 `json:"min_increment"`
	ProxyEnabled  bool    `json:"proxy_enabled"`
	BuyNowEnabled bool    `json:"buy_now_enabled"`
	BuyNowPrice   float64 `json:"buy_now_price"`
	DurationHours int     `json:"duration_hours"`
}
