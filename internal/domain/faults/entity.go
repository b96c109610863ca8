package faults

import "time"

// Fault is a persisted record of a failed producer call: which input it was
// for and what the provider said. Kept for diagnostics only; failures are
// never written to the analysis cache itself.
type Fault struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	ScanType    string    `json:"scan_type,omitempty"`
	InputMethod string    `json:"input_method,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
