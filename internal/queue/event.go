// Package queue carries best-effort side-effect events over RabbitMQ,
// decoupling the payment/ticket critical path from SMTP latency:
// failures are logged and never propagate into a DB rollback. Keeps
// the BookingConfirmedEvent/consumer shape of a booking-confirmation
// package, generalized to the ticket-confirmation domain.
package queue

// TicketConfirmedEvent is published once per successful Settle so a
// background consumer can render and send the confirmation email
// without holding up the payment callback response.
type TicketConfirmedEvent struct {
	BookingCode   string   `json:"booking_code"`
	TransactionID uint64   `json:"transaction_id"`
	CustomerEmail string   `json:"customer_email"`
	ShowtimeIDs   []uint64 `json:"showtime_ids"`
	SeatCodes     []string `json:"seat_codes"`
	TicketIDs     []uint64 `json:"ticket_ids"`
	TotalAmount   uint32   `json:"total_amount"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
