package cache

import (
	"time"

	"github.com/ericlunden/foodlab-core/internal/domain/analysis"
)

// Entry is one cached, already-normalized analysis. Key is unique within the
// store at any instant. ScanType and InputMethod are free-form tags; only
// InputMethod participates in the dedup signature, together with FoodName.
type Entry struct {
	Key         string                      `json:"key"`
	FoodName    string                      `json:"food_name"`
	Analysis    analysis.NormalizedAnalysis `json:"analysis"`
	CreatedAt   time.Time                   `json:"created_at"`
	Favorite    bool                        `json:"favorite"`
	ScanType    string                      `json:"scan_type,omitempty"`
	InputMethod string                      `json:"input_method,omitempty"`
}

// DedupSignature identifies the logical food item independent of the key
// scheme: two entries with equal signatures describe the same item and at
// most one of them may exist in the store.
func (e Entry) DedupSignature() string {
	return NormalizeFoodName(e.FoodName) + "\x00" + e.InputMethod
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}

// Tags carries the free-form labels recorded on insert.
type Tags struct {
	ScanType    string
	InputMethod string
}

// Sort orders for listings.
type Sort string

const (
	SortNewest    Sort = "newest" // default
	SortScoreAsc  Sort = "score_asc"
	SortScoreDesc Sort = "score_desc"
	SortName      Sort = "name"
)
