package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Subscriber wraps Redis Pub/Sub for the broadcast service.
type Subscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
}

// NewSubscriber creates a new Redis Pub/Sub subscriber
func NewSubscriber(addr, password string, db int) (*Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Subscriber{client: rdb}, nil
}

// SubscribeToPattern subscribes to bid events using pattern matching.
// Pattern "auction_events:*" covers every auction.
func (s *Subscriber) SubscribeToPattern(ctx context.Context, pattern string) error {
	s.pubsub = s.client.PSubscribe(ctx, pattern)
	return nil
}

// Message represents a parsed Pub/Sub message
type Message struct {
	AuctionID string
	Payload   string                 // Raw JSON payload
	Event     map[string]interface{} // Parsed event data
}

// Listen forwards incoming messages to messageChan until ctx is done.
// This is a blocking operation - run in a goroutine.
func (s *Subscriber) Listen(ctx context.Context, messageChan chan<- *Message) error {
	if s.pubsub == nil {
		return fmt.Errorf("not subscribed to any channel")
	}

	ch := s.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			var event map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				fmt.Printf("Warning: failed to parse message: %v\n", err)
				continue
			}

			messageChan <- &Message{
				AuctionID: auctionIDFromChannel(msg.Channel),
				Payload:   msg.Payload,
				Event:     event,
			}
		}
	}
}

// auctionIDFromChannel extracts the auction id from a channel name.
// Example: "auction_events:a1b2" -> "a1b2"
func auctionIDFromChannel(channel string) string {
	prefix := "auction_events:"
	if len(channel) > len(prefix) {
		return channel[len(prefix):]
	}
	return ""
}

// Close closes the subscriber
func (s *Subscriber) Close() error {
	if s.pubsub != nil {
		s.pubsub.Close()
	}
	return s.client.Close()
}
