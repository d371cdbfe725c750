package models

import "time"

// Event types published after every accepted bid. Consumed by the
// broadcast service (Redis Pub/Sub) and the archival worker (JetStream).
const (
	EventBidPlaced = "bid_placed"
	EventOutbid    = "outbid"
)

// BidEvent represents an event emitted by the placement pipeline.
// For "bid_placed", BidderID/Amount describe the accepted bid.
// For "outbid", PreviousBidderID is the dislodged bidder and BidderID
// the new highest bidder.
type BidEvent struct {
	EventID          string    `json:"event_id"`
	Type             string    `json:"type"`
	AuctionID        string    `json:"auction_id"`
	BidID            string    `json:"bid_id,omitempty"`
	BidderID         string    `json:"bidder_id"`
	PreviousBidderID string    `json:"previous_bidder_id,omitempty"`
	Amount           float64   `json:"amount,omitempty"`
	IsProxy          bool      `json:"is_proxy,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
