// Package payment implements the payment orchestrator: creating a
// pending payment against a session's held seats, driving the
// VNPay-class gateway callback through the serialized Settle critical
// section, and handing confirmed holds to the ticket issuer.
package payment

import "errors"

// ErrNotFound is returned when an order id resolves to no payment.
var ErrNotFound = errors.New("payment not found")

// ErrNoReservations is returned when Create or Settle finds zero
// pending holds bound to the caller's session/payment.
var ErrNoReservations = errors.New("no reservations")

// ErrExpired is returned when Settle finds holds bound to the payment
// whose TTL has already lapsed.
var ErrExpired = errors.New("reservation expired")

// ErrBusy is returned when the per-order-id settle mutex could not be
// acquired within its timeout.
var ErrBusy = errors.New("settle busy, retry")

// ErrGatewaySignature is returned when the gateway callback's HMAC
// does not validate. The payment row is left untouched.
var ErrGatewaySignature = errors.New("invalid gateway signature")

// ErrInvalidMethod is returned when a payment method is not one of the
// recognised PaymentMethod values.
var ErrInvalidMethod = errors.New("invalid payment method")
