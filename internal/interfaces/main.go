package interfaces

import (
	"context"

	"flipclub/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
	AllowUser(ctx context.Context, key string, limit redis_rate.Limit) error
}

// TierResolver supplies a user's tier at call time from the external
// token-holding snapshot. Implementations must not cache beyond a short TTL;
// tier is point-in-time data owned elsewhere.
type TierResolver interface {
	Tier(ctx context.Context, userID int64) (models.Tier, error)
}
