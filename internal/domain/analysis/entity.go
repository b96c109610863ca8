package analysis

import (
	"time"
)

// Score is an integer health score in [0,100]. ScoreUnavailable marks a score
// that is known to be inapplicable, as opposed to not yet computed; it is kept
// through serialization and is never coerced to zero.
type Score int

const ScoreUnavailable Score = -1

// Available reports whether the score carries a real value.
func (s Score) Available() bool { return s >= 0 }

// Category enum for per-category sub-scores.
type Category string

const (
	CategoryHeartHealth      Category = "heartHealth"
	CategoryBloodSugar       Category = "bloodSugar"
	CategoryAntiInflammation Category = "antiInflammation"
	CategoryBrainHealth      Category = "brainHealth"
	CategoryEnergy           Category = "energy"
	CategoryImmune           Category = "immune"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryHeartHealth,
		CategoryBloodSugar,
		CategoryAntiInflammation,
		CategoryBrainHealth,
		CategoryEnergy,
		CategoryImmune,
	}
}

// Completeness enum
type Completeness string

const (
	CompletenessComplete    Completeness = "complete"
	CompletenessPartial     Completeness = "partial"
	CompletenessEstimated   Completeness = "estimated"
	CompletenessUnavailable Completeness = "unavailable"
	CompletenessCached      Completeness = "cached"
)

// Source enum
type Source string

const (
	SourcePrimary       Source = "primary"
	SourceCached        Source = "cached"
	SourceFallback      Source = "fallback"
	SourceReconstructed Source = "reconstructed"
)

// RawAnalysis is producer output: an overall score plus per-category
// sub-scores that have not yet been made coherent with each other.
// HighSugar is a caller-supplied signal; the normalizer never derives it.
type RawAnalysis struct {
	FoodName     string             `json:"food_name"`
	OverallScore Score              `json:"overall_score"`
	SubScores    map[Category]Score `json:"sub_scores"`
	Completeness Completeness       `json:"completeness"`
	Source       Source             `json:"source"`
	HighSugar    bool               `json:"high_sugar,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// NormalizedAnalysis is a RawAnalysis whose available sub-scores all sit
// inside the coherence band around the overall score. Treated as immutable
// once produced; cached copies are returned as-is and never re-normalized.
type NormalizedAnalysis struct {
	RawAnalysis
}
