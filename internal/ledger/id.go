package ledger

import "github.com/oklog/ulid/v2"

// NewULID returns a monotonic ULID string.
func NewULID() string {
	return ulid.Make().String()
}
