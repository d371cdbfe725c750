package access

import (
	"context"

	"github.com/aaronwang/auction-house/internal/models"
	redisClient "github.com/aaronwang/auction-house/internal/redis"
)

// AllowAll passes every bidder. Used by deployments without a
// membership subsystem; public auctions never consult the policy beyond
// this anyway.
type AllowAll struct{}

func (AllowAll) CanBid(context.Context, *models.Auction, string) (bool, error) {
	return true, nil
}

// RedisGroups implements the membership check for restricted auctions
// against the Redis sets maintained by the membership subsystem. Public
// auctions pass unconditionally.
type RedisGroups struct {
	redis *redisClient.Client
}

// NewRedisGroups creates a RedisGroups policy.
func NewRedisGroups(redis *redisClient.Client) *RedisGroups {
	return &RedisGroups{redis: redis}
}

func (p *RedisGroups) CanBid(ctx context.Context, auction *models.Auction, bidderID string) (bool, error) {
	if auction.Visibility != models.VisibilityRestricted {
		return true, nil
	}
	return p.redis.IsAuctionMember(ctx, auction.ID, bidderID)
}
