package analysis

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ProviderError wraps any producer failure: timeout, malformed output,
// non-2xx status, rate limit. Never cached; propagated to the caller of
// Resolve, which owns retry/fallback policy.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider %s: %v", e.Op, e.Err) }

func (e *ProviderError) Unwrap() error { return e.Err }
