package ticket

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// qrClaims is the payload embedded in a ticket's QR code, signed so
// that a scanner can verify authenticity offline without a DB
// round-trip.
type qrClaims struct {
	jwt.RegisteredClaims
	TicketID    uint64 `json:"ticket_id"`
	BookingCode string `json:"booking_code"`
	UserID      uint64 `json:"user_id,omitempty"`
	ShowtimeID  uint64 `json:"showtime_id"`
	SeatID      uint64 `json:"seat_id"`
	Price       uint32 `json:"price"`
}

// qrTTL is the lifetime of a signed QR payload.
const qrTTL = 12 * time.Hour

// signQRPayload produces a compact JWT carrying the ticket's
// identifying fields, HS256-signed with secret.
func signQRPayload(secret string, ticketID, userID uint64, showtimeID, seatID uint64, price uint32, bookingCode string) (string, error) {
	now := time.Now().UTC()
	claims := qrClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(qrTTL)),
		},
		TicketID:    ticketID,
		BookingCode: bookingCode,
		UserID:      userID,
		ShowtimeID:  showtimeID,
		SeatID:      seatID,
		Price:       price,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
