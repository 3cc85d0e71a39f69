package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	pendingNotYet := Hold{Status: HoldPending, ExpiresAt: now.Add(time.Minute)}
	assert.False(t, pendingNotYet.Expired(now))

	pendingPast := Hold{Status: HoldPending, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, pendingPast.Expired(now))

	pendingExactlyNow := Hold{Status: HoldPending, ExpiresAt: now}
	assert.True(t, pendingExactlyNow.Expired(now), "expiry boundary is inclusive")

	confirmed := Hold{Status: HoldConfirmed, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, confirmed.Expired(now), "a confirmed hold is never 'expired'")
}

func TestHoldLive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Hold{Status: HoldConfirmed}.Live(now))
	assert.True(t, Hold{Status: HoldPending, ExpiresAt: now.Add(time.Minute)}.Live(now))
	assert.False(t, Hold{Status: HoldPending, ExpiresAt: now.Add(-time.Minute)}.Live(now))
	assert.False(t, Hold{Status: HoldCancelled, ExpiresAt: now.Add(time.Hour)}.Live(now))
}
