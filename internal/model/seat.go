package model

// SeatType enumerates the pricing/layout classes a seat can belong to.
// Couple seats occupy two adjacent columns but are modelled as a single
// seat record carrying this type tag — no separate "half-seat" entity.
type SeatType string

const (
	SeatRegular SeatType = "regular"
	SeatVIP     SeatType = "vip"
	SeatCouple  SeatType = "couple"
)

// PriceMultiplier returns the ticket-price multiplier for a seat type.
// This is the single source of truth for price consistency: both the
// payment orchestrator and the ticket issuer must recompute price
// through this table, never a cached value.
func (t SeatType) PriceMultiplier() float64 {
	switch t {
	case SeatVIP:
		return 1.5
	case SeatCouple:
		return 2.0
	default:
		return 1.0
	}
}

// Valid reports whether t is one of the known seat types.
func (t SeatType) Valid() bool {
	switch t {
	case SeatRegular, SeatVIP, SeatCouple:
		return true
	default:
		return false
	}
}

// Seat is a physical seat in a room.  Owned by the catalog collaborator;
// this package only reads it to resolve type and price.
//
// Fields:
//  ID       – primary key identifier.
//  RoomID   – room this seat belongs to.
//  SeatCode – human-facing code, e.g. "F12".
//  Type     – pricing/layout class.
type Seat struct {
	ID       uint64   // seats.id
	RoomID   uint64   // seats.room_id
	SeatCode string   // seats.seat_code
	Type     SeatType // seats.seat_type
}
