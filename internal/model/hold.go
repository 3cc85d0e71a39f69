package model

import "time"

// HoldStatus is the lifecycle state of a Hold. A confirmed hold never
// returns to pending, a cancelled hold never becomes pending —
// transitions only ever move forward through this list.
type HoldStatus string

const (
	HoldPending   HoldStatus = "pending"
	HoldConfirmed HoldStatus = "confirmed"
	HoldCancelled HoldStatus = "cancelled"
)

// Hold is the central entity: a time-bounded, session-owned reservation
// on a (showtime, seat) pair.
//
// Fields:
//  ID            – primary key identifier.
//  ShowtimeID    – showtime this hold belongs to.
//  SeatID        – seat being held.
//  SessionID     – opaque client-supplied session that owns the hold.
//  UserID        – authenticated user, nil for guest sessions.
//  ReservedAt    – when the hold was created.
//  ExpiresAt     – when an unconfirmed hold lapses.
//  Status        – pending, confirmed or cancelled.
//  PaymentID     – payment this hold is bound to, nil until a payment is created for it.
//  TransactionID – transaction that confirmed this hold, nil until tickets are issued.
type Hold struct {
	ID            uint64
	ShowtimeID    uint64
	SeatID        uint64
	SessionID     string
	UserID        *uint64
	ReservedAt    time.Time
	ExpiresAt     time.Time
	Status        HoldStatus
	PaymentID     *uint64
	TransactionID *uint64
}

// Expired reports whether the hold is logically expired as of now. A
// pending hold with now >= ExpiresAt must not block new holds even
// before the reaper has physically swept it.
func (h Hold) Expired(now time.Time) bool {
	return h.Status == HoldPending && !now.Before(h.ExpiresAt)
}

// Live reports whether the hold currently occupies the (showtime, seat)
// slot: confirmed, or pending and not yet expired.
func (h Hold) Live(now time.Time) bool {
	switch h.Status {
	case HoldConfirmed:
		return true
	case HoldPending:
		return now.Before(h.ExpiresAt)
	default:
		return false
	}
}
