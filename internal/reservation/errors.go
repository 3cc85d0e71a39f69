// Package reservation implements the reservation service: validating
// and creating holds, cancelling them on behalf of their owning
// session, and snapshotting live state for new subscribers. Grounded on
// CustomerHandler.HoldSeats / ReleaseHolds / ConfirmSeats's trio in
// internal/handler/customer_reservation.go, generalized from an Echo
// handler into a transport-independent service.
package reservation

import "errors"

// ErrNotFound is returned when the referenced showtime or seat does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrSeatSold is returned when TryCreate conflicts with an existing
// confirmed hold.
var ErrSeatSold = errors.New("seat sold")

// ErrSeatHeld is returned when TryCreate conflicts with an existing
// unexpired pending hold.
var ErrSeatHeld = errors.New("seat held")

// ErrForbidden is returned when a cancel is attempted by a session
// that does not own the targeted holds.
var ErrForbidden = errors.New("forbidden")
