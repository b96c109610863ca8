package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ericlunden/foodlab-core/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a longevity nutrition analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- All scores are integers from 0 to 100. Use -1 for any score you cannot assess.
- overall_score is the headline longevity score for the food as a whole.
- high_sugar is true when the food is high in added or free sugars.
- completeness is one of: complete, partial, estimated.
- Keep food_name short and canonical (e.g. "grilled salmon", not a sentence).

Schema (example with empty values):
{
  "food_name": "<string>",
  "overall_score": 0,
  "sub_scores": {
    "heartHealth": 0,
    "bloodSugar": 0,
    "antiInflammation": 0,
    "brainHealth": 0,
    "energy": 0,
    "immune": 0
  },
  "high_sugar": false,
  "completeness": "<complete|partial|estimated>"
}`
}

// GetUserPrompt builds a compact user message around a food name.
func GetUserPrompt(foodName string) string {
	return fmt.Sprintf("Analyze this food and respond with the JSON per schema. Food: %s", foodName)
}

// GetImagePrompt is the text part accompanying a food photo.
func GetImagePrompt() string {
	return "Identify the food in this photo and respond with the JSON per schema."
}

// wire shape of the model output
type payload struct {
	FoodName     string         `json:"food_name"`
	OverallScore *int           `json:"overall_score"`
	SubScores    map[string]int `json:"sub_scores"`
	HighSugar    bool           `json:"high_sugar"`
	Completeness string         `json:"completeness"`
}

// ParseAnalysis decodes the model's JSON into a RawAnalysis. Missing or
// negative scores map to the unavailable sentinel; malformed JSON is an
// error the caller surfaces as a provider failure.
func ParseAnalysis(raw string, now time.Time) (analysis.RawAnalysis, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return analysis.RawAnalysis{}, fmt.Errorf("malformed analysis JSON: %w", err)
	}
	if strings.TrimSpace(p.FoodName) == "" {
		return analysis.RawAnalysis{}, fmt.Errorf("analysis JSON missing food_name")
	}

	out := analysis.RawAnalysis{
		FoodName:     strings.TrimSpace(p.FoodName),
		OverallScore: analysis.ScoreUnavailable,
		SubScores:    make(map[analysis.Category]analysis.Score, len(analysis.Categories())),
		Completeness: parseCompleteness(p.Completeness),
		Source:       analysis.SourcePrimary,
		HighSugar:    p.HighSugar,
		Timestamp:    now,
	}
	if p.OverallScore != nil {
		out.OverallScore = clampScore(*p.OverallScore)
	}
	for _, cat := range analysis.Categories() {
		v, ok := p.SubScores[string(cat)]
		if !ok {
			out.SubScores[cat] = analysis.ScoreUnavailable
			continue
		}
		out.SubScores[cat] = clampScore(v)
	}
	return out, nil
}

func clampScore(v int) analysis.Score {
	if v < 0 {
		return analysis.ScoreUnavailable
	}
	if v > 100 {
		v = 100
	}
	return analysis.Score(v)
}

func parseCompleteness(s string) analysis.Completeness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return analysis.CompletenessComplete
	case "partial":
		return analysis.CompletenessPartial
	case "estimated":
		return analysis.CompletenessEstimated
	default:
		return analysis.CompletenessPartial
	}
}
