package repository

import "strings"

// buildInQuery appends a `col IN (?, ?, ...)` placeholder list (closing
// the paren the caller's prefix left open) and returns the args in the
// same order. Used by every bulk-lookup/bulk-write query in this
// package so the placeholder bookkeeping lives in one place.
func buildInQuery(prefix string, ids []uint64) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(prefix)
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
		args[i] = id
	}
	b.WriteByte(')')
	return b.String(), args
}
