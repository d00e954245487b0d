package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoEntitlement = errors.New("no flip available today")
var ErrDrawNotReady = errors.New("drawing is not ready")
var ErrBelowThreshold = errors.New("pending balance below withdrawal threshold")
var ErrWithdrawalOutstanding = errors.New("a withdrawal request is already outstanding")
var ErrLedgerInconsistency = errors.New("entry ledger does not match flip log")
var ErrFlipLock = errors.New("flip locked")
var ErrWithdrawalLock = errors.New("withdrawal locked")

const (
	CONFIG_SERVER_MODE          = "SERVER_MODE"
	CONFIG_FLIP_REWARD_AMOUNT   = "FLIP_REWARD_AMOUNT"
	CONFIG_MIN_WITHDRAWAL       = "MIN_WITHDRAWAL"
	CONFIG_TEXT_NEW_USER        = "TEXT_NEW_USER"
	CONFIG_TEXT_WINNER_ANNOUNCE = "TEXT_WINNER_ANNOUNCE"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_STAGING     = "staging"
	SERVER_MODE_PRODUCTION  = "production"

	DEFAULT_FLIP_REWARD_AMOUNT = 10000
	DEFAULT_MIN_WITHDRAWAL     = 50000

	CACHE_TTL_5_MINS = 5 * time.Minute

	FLIP_RATE_LIMIT_PER_MINUTE = 30
)

// ConfigSource reads runtime configuration with a default fallback.
type ConfigSource interface {
	GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error)
	GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error)
}

func LockKeyUserFlip(userID int64) string {
	return fmt.Sprintf("lock:user-flip:%d", userID)
}

func LockKeyUserWithdrawal(userID int64) string {
	return fmt.Sprintf("lock:user-withdrawal:%d", userID)
}

func LockKeyDraw(month string) string {
	return fmt.Sprintf("lock:prize-draw:%s", month)
}

// db
func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyUserWallet(userID int64) string {
	return fmt.Sprintf("user_wallet:%d", userID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func LimitKeyUserFlip(userID int64) string {
	return fmt.Sprintf("limit:flip:%d", userID)
}
