package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBonusGrantActive(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	g := &BonusGrant{UnitsRemaining: 1}
	assert.True(t, g.Active(now), "unexpiring grant with units")

	g = &BonusGrant{UnitsRemaining: 0}
	assert.False(t, g.Active(now), "no units left")

	g = &BonusGrant{UnitsRemaining: 1, ExpiresAt: &future}
	assert.True(t, g.Active(now), "expiry in the future")
	assert.False(t, g.Active(future), "expiry instant is exclusive")
	assert.False(t, g.Active(future.Add(time.Second)))
}

func TestWithdrawalStatusTerminal(t *testing.T) {
	assert.False(t, WithdrawalStatusRequested.Terminal())
	assert.False(t, WithdrawalStatusApproved.Terminal())
	assert.True(t, WithdrawalStatusPaid.Terminal())
	assert.True(t, WithdrawalStatusRejected.Terminal())
}
