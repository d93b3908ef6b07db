package codec

import "fmt"

// DecodeError indicates a stored row could not be reconstructed into a known
// entity, typically schema or version skew. It is fatal for that row's read
// but does not abort unrelated reads.
type DecodeError struct {
	Entity string // "currency" or "instrument"
	Key    string // Primary key of the offending row
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: %s", e.Entity, e.Key, e.Reason)
}
