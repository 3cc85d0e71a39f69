// Package ticket implements the ticket issuer: the atomic transition
// of confirmed holds into Ticket rows with a shared booking code and a
// JWT-signed QR payload, grounded on process_successful_payment and on
// utils/jwt.go's token-signing pattern.
package ticket

import "errors"

// ErrNoHolds is returned when Issue is called with an empty hold set.
var ErrNoHolds = errors.New("no holds to issue")
