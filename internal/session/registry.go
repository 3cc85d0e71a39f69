// Package session tracks the opaque client-correlation ids used to
// group holds, websocket subscriptions, and cart release calls without
// requiring authentication.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a lightweight client-correlation handle. It carries no
// credentials; UserID is populated only when the caller is
// authenticated — sessions are independent of identity.
type Session struct {
	ID         string
	ShowtimeID uint64
	UserID     *uint64
	lastSeen   time.Time
}

// Registry tracks live sessions in memory, keyed by id. It is process-
// local; a session created on one API instance is not visible to
// another. Session scope is per-connection and reconstructable from the
// hold store on restart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// New mints a fresh session for a showtime, optionally bound to an
// authenticated user.
func (r *Registry) New(showtimeID uint64, userID *uint64) *Session {
	s := &Session{ID: uuid.NewString(), ShowtimeID: showtimeID, UserID: userID, lastSeen: time.Now()}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session for id, if it's still tracked.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Touch refreshes a session's last-seen time, called by the websocket
// hub on every inbound frame.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = time.Now()
	}
}

// Drop removes a session, called on websocket disconnect.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Sweep removes sessions untouched for longer than idleFor, returning
// their ids so the caller can release any holds they still own. A
// session outliving its holds is harmless (the reaper already expires
// those independently); this only bounds memory growth from abandoned
// connections.
func (r *Registry) Sweep(idleFor time.Duration) []string {
	cutoff := time.Now().Add(-idleFor)
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []string
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, id)
			delete(r.sessions, id)
		}
	}
	return stale
}
