package model

import "time"

// TransactionStatus mirrors PaymentStatus's pending/success/failed arc
// but has no "cancelled" state — a transaction is only ever created
// alongside a pending payment and settles one-to-one with it.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Transaction is created in pending state alongside a Payment and
// settles one-to-one with it. ExternalRef carries the gateway's own
// transaction identifier once known.
type Transaction struct {
	ID          uint64
	UserID      uint64
	TotalAmount uint32
	Method      PaymentMethod
	Status      TransactionStatus
	PaymentID   uint64
	ExternalRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
