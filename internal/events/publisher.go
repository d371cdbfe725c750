package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/aaronwang/auction-house/internal/models"
	redisClient "github.com/aaronwang/auction-house/internal/redis"
)

// StreamName is the JetStream stream holding archived bid events.
const StreamName = "AUCTION_EVENTS"

// Publisher fans accepted-bid events out to the downstream consumers:
// Redis Pub/Sub for the real-time WebSocket broadcast, NATS core for
// low-latency subscribers, and JetStream for the archival worker.
// Delivery is best effort from the engine's point of view; the write
// path never depends on it.
type Publisher struct {
	redis *redisClient.Client
	nats  *nats.Conn
	js    jetstream.JetStream
}

// NewPublisher creates a Publisher and ensures the archival stream exists.
func NewPublisher(redis *redisClient.Client, natsConn *nats.Conn) (*Publisher, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Stream for bid event archival",
		Subjects:    []string{"auction.events.*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.WorkQueuePolicy, // each message consumed once
		MaxAge:      24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}
	fmt.Printf("[JETSTREAM] Stream '%s' ready\n", StreamName)

	return &Publisher{
		redis: redis,
		nats:  natsConn,
		js:    js,
	}, nil
}

// Publish implements engine.EventSink. The engine calls it inside the
// per-auction critical section, so the actual I/O happens off the hot
// path in goroutines.
func (p *Publisher) Publish(_ context.Context, event *models.BidEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		fmt.Printf("Warning: failed to marshal bid event: %v\n", err)
		return
	}

	// Redis Pub/Sub for the broadcast service.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.redis.PublishBidEvent(ctx, event.AuctionID, event); err != nil {
			fmt.Printf("Warning: failed to publish bid event to Redis: %v\n", err)
		}
	}()

	// NATS core publish for real-time subscribers.
	go func() {
		subject := fmt.Sprintf("auction_events.%s", event.AuctionID)
		if err := p.nats.Publish(subject, data); err != nil {
			fmt.Printf("Warning: failed to publish bid event to NATS: %v\n", err)
		}
	}()

	// JetStream publish for archival (acknowledged, at-least-once).
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		subject := fmt.Sprintf("auction.events.%s", event.AuctionID)
		ack, err := p.js.Publish(ctx, subject, data)
		if err != nil {
			fmt.Printf("Warning: failed to publish to JetStream: %v\n", err)
			return
		}
		fmt.Printf("[JETSTREAM] Published to %s, seq=%d\n", subject, ack.Sequence)
	}()
}
