package model

import "time"

// PaymentMethod enumerates the settlement rails a payment can use.
type PaymentMethod string

const (
	MethodVNPay PaymentMethod = "vnpay"
	MethodCash  PaymentMethod = "cash"
	MethodMomo  PaymentMethod = "momo"
	MethodBank  PaymentMethod = "bank"
	MethodZalo  PaymentMethod = "zalo"
)

// Valid reports whether m is a recognised payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodVNPay, MethodCash, MethodMomo, MethodBank, MethodZalo:
		return true
	default:
		return false
	}
}

// PaymentStatus is the lifecycle state of a Payment. Once Success or
// Failed, no subsequent callback may rewrite it.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether s is success or failed — the two states a
// settled payment may never be rewritten out of.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// GatewayFields holds the VNPay-class gateway's method-specific data.
// Modelled as a product-type field group on Payment rather than via a
// polymorphic per-method payment record. Every field is the zero value
// for non-gateway methods (cash/momo/bank/zalo).
type GatewayFields struct {
	TxnRef        string // gateway's transaction reference, usually == OrderID
	TransactionNo string // gateway transaction number, filled on callback
	BankCode      string
	CardType      string
	PayDate       string
	ResponseCode  string
}

// Payment is one attempt to settle the holds bound to a session. Amount
// is in the smallest currency unit (cents/đồng) to match Hold/Ticket
// pricing.
type Payment struct {
	ID          uint64
	OrderID     string // opaque, globally unique
	UserID      uint64
	Amount      uint32
	Method      PaymentMethod
	Status      PaymentStatus
	GatewayURL  string
	Gateway     GatewayFields
	ExpiresAt   time.Time
	ClientIP    string
	Description string
	// CustomerEmail is supplied by the caller at Create time so the
	// confirmation email can be enqueued without depending on the
	// external user-directory collaborator for a contact address.
	CustomerEmail string
	// FailureReason is set once, the first time Settle marks this
	// payment Failed, and never overwritten afterwards — a duplicate
	// callback re-reads it instead of re-deriving a (possibly
	// different) reason from that later callback's own data.
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
