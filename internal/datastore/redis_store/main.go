package redis_store

import (
	"context"
	"fmt"
	"time"

	"flipclub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	MONTH_STATS_TTL = 30 * time.Second
)

func dbKeyMonthStats(month string) string {
	return fmt.Sprintf("flip:month:%s:stats", month)
}

func dbKeyWinnerAnnounced(month string) string {
	return fmt.Sprintf("prize:%s:winner_announced", month)
}

func GetMonthStats(ctx context.Context, cmd redis.Cmdable, month string) (*models.MonthStats, error) {
	var v *models.MonthStats
	b, err := cmd.Get(ctx, dbKeyMonthStats(month)).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

func SetMonthStats(ctx context.Context, cmd redis.Cmdable, stats *models.MonthStats) error {
	b, err := msgpack.Marshal(stats)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyMonthStats(stats.Month), b, MONTH_STATS_TTL).Err()
}

// MarkWinnerAnnounced is the dedupe guard for the bot announcement; only the
// first caller for a month gets true.
func MarkWinnerAnnounced(ctx context.Context, cmd redis.Cmdable, month string) (bool, error) {
	return cmd.SetNX(ctx, dbKeyWinnerAnnounced(month), true, 0).Result()
}

func IsWinnerAnnounced(ctx context.Context, cmd redis.Cmdable, month string) (bool, error) {
	_, err := cmd.Get(ctx, dbKeyWinnerAnnounced(month)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func dbKeyBroadcastSent(userID int64) string {
	return fmt.Sprintf("broadcast:sent:%d", userID)
}

// Broadcast markers keep a restarted /notify run from re-sending. They expire
// after a day so the next campaign starts clean.
func GetBroadcastSent(ctx context.Context, cmd redis.Cmdable, userID int64) (bool, error) {
	_, err := cmd.Get(ctx, dbKeyBroadcastSent(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func SetBroadcastSent(ctx context.Context, cmd redis.Cmdable, userID int64) error {
	return cmd.Set(ctx, dbKeyBroadcastSent(userID), true, 24*time.Hour).Err()
}

func GetSIWTNonce(ctx context.Context, cmd redis.Cmdable, key string) (string, error) {
	n, err := cmd.Get(ctx, key).Result()
	if err != nil {
		return n, err
	}

	return n, err
}

func SetSIWTNonce(ctx context.Context, cmd redis.Cmdable, key, nonce string, expiration time.Duration) error {
	err := cmd.Set(ctx, key, nonce, expiration).Err()
	if err != nil {
		return err
	}

	return err
}
