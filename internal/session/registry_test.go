package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNewAssignsUniqueID(t *testing.T) {
	r := NewRegistry()
	s1 := r.New(10, nil)
	s2 := r.New(10, nil)

	require.NotEmpty(t, s1.ID)
	require.NotEmpty(t, s2.ID)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, uint64(10), s1.ShowtimeID)
	assert.Nil(t, s1.UserID)
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	s := r.New(1, nil)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)

	_, ok = r.Get("does-not-exist")
	assert.False(t, ok)
}

func TestRegistryDrop(t *testing.T) {
	r := NewRegistry()
	s := r.New(1, nil)
	r.Drop(s.ID)

	_, ok := r.Get(s.ID)
	assert.False(t, ok)
}

func TestRegistrySweepRemovesOnlyStaleSessions(t *testing.T) {
	r := NewRegistry()
	fresh := r.New(1, nil)
	stale := r.New(1, nil)

	r.mu.Lock()
	r.sessions[stale.ID].lastSeen = time.Now().Add(-time.Hour)
	r.mu.Unlock()

	removed := r.Sweep(time.Minute)
	assert.Equal(t, []string{stale.ID}, removed)

	_, ok := r.Get(fresh.ID)
	assert.True(t, ok)
	_, ok = r.Get(stale.ID)
	assert.False(t, ok)
}

func TestRegistryTouchRefreshesLastSeen(t *testing.T) {
	r := NewRegistry()
	s := r.New(1, nil)

	r.mu.Lock()
	r.sessions[s.ID].lastSeen = time.Now().Add(-time.Hour)
	r.mu.Unlock()

	r.Touch(s.ID)

	removed := r.Sweep(time.Minute)
	assert.Empty(t, removed)
}
