package model

// Session is the opaque client-supplied identifier that correlates a
// hold request and a later payment request across one browsing/
// purchase flow.  The live channel handle and showtime subscription
// are tracked by internal/session.Registry, not here — this struct is
// the wire-level shape handlers bind against.
type Session struct {
	ID         string
	ShowtimeID uint64
	UserID     *uint64
}
