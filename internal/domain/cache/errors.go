package cache

import "fmt"

// DecodeError marks a cached blob that failed to deserialize. Policy: the
// corrupt entry is skipped and dropped from the snapshot; it never aborts a
// lookup or a listing.
type DecodeError struct {
	Position int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode cache entry at position %d: %v", e.Position, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
