package payment

import "github.com/kseat/cinema-reservation-core/internal/model"

// CreateRequest is the body of POST /payments/create.
type CreateRequest struct {
	SessionID     string              `json:"session_id"`
	Method        model.PaymentMethod `json:"method"`
	OrderDesc     string              `json:"desc"`
	CustomerEmail string              `json:"customer_email"`
	Locale        string              `json:"locale"`
}

// CreateResponse mirrors the PaymentResponse returned by Create.
type CreateResponse struct {
	PaymentURL string              `json:"payment_url,omitempty"`
	OrderID    string              `json:"order_id"`
	Amount     uint32              `json:"amount"`
	Method     model.PaymentMethod `json:"method"`
	Status     model.PaymentStatus `json:"status"`
}

// SettleResult is what Settle (and HandleCallback, which delegates to
// it) returns to the HTTP boundary.
type SettleResult struct {
	Status      model.PaymentStatus `json:"status"`
	BookingCode string              `json:"booking_code,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}
