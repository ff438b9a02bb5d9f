// Package ids issues and checks request identifiers.
package ids

import (
	"github.com/oklog/ulid/v2"
)

const maxRequestIDLen = 64

// NewRequestID returns a ULID, so ids sort by issue time.
func NewRequestID() string {
	return ulid.Make().String()
}

// ValidRequestID reports whether a caller supplied id may be echoed back and
// logged: 1 to 64 characters from [A-Za-z0-9._-].
func ValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
