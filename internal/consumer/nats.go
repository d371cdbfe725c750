package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/aaronwang/auction-house/internal/events"
	"github.com/aaronwang/auction-house/internal/models"
)

// ConsumerName is the durable consumer bound to the archival stream.
// Durability is what carries the worker across restarts: events published
// while it is down wait in the stream and are delivered on reattach.
const ConsumerName = "archival-worker"

// EventArchive persists delivered bid events.
type EventArchive interface {
	InsertBidEvent(ctx context.Context, event *models.BidEvent) error
}

// NATSConsumer consumes bid events from the AUCTION_EVENTS JetStream
// stream and persists them to the bid_events archive for activity and
// notification consumers. The ledger itself is written synchronously by
// the placement pipeline; this worker only archives the event feed.
type NATSConsumer struct {
	conn *nats.Conn
	js   jetstream.JetStream
	db   EventArchive
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(natsURL string, db EventArchive) (*NATSConsumer, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSConsumer{
		conn: conn,
		js:   js,
		db:   db,
	}, nil
}

// Start attaches the durable consumer to the archival stream and
// consumes until the context is cancelled. Explicit acks: a message is
// acked only after the archive insert succeeds, everything else is
// redelivered after the ack wait.
func (c *NATSConsumer) Start(ctx context.Context) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, events.StreamName, jetstream.ConsumerConfig{
		Durable:       ConsumerName,
		FilterSubject: "auction.events.*",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		c.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	fmt.Printf("[JETSTREAM] Durable consumer '%s' attached to stream '%s'\n", ConsumerName, events.StreamName)

	// Keep consumer running until context is cancelled
	<-ctx.Done()
	return nil
}

// handleMessage processes a single bid event message
func (c *NATSConsumer) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var event models.BidEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		fmt.Printf("Failed to unmarshal event: %v\n", err)
		// Malformed payloads never parse; terminate instead of redelivering.
		msg.Term()
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.db.InsertBidEvent(dbCtx, &event); err != nil {
		fmt.Printf("Failed to archive bid event %s: %v\n", event.EventID, err)
		// No ack; the stream redelivers after the ack wait.
		return
	}

	fmt.Printf("Archived %s event %s (auction: %s, bidder: %s, amount: $%.2f)\n",
		event.Type, event.EventID, event.AuctionID, event.BidderID, event.Amount)

	if err := msg.Ack(); err != nil {
		fmt.Printf("Failed to ack event %s: %v\n", event.EventID, err)
	}
}

// Close closes the NATS connection
func (c *NATSConsumer) Close() error {
	c.conn.Close()
	return nil
}
