package prompt

import (
	"strings"
	"time"

	"github.com/ericlunden/foodlab-core/internal/domain/analysis"
)

// ReconstructAnalysis builds a rough, deterministic analysis from the food
// name alone. It is the offline tier used when no AI provider is configured
// or as a last-resort fallback; the result is marked reconstructed/estimated
// so callers can tell it apart from a real provider record.
func ReconstructAnalysis(foodName string, now time.Time) analysis.RawAnalysis {
	name := strings.ToLower(foodName)

	score := 50
	for _, kw := range positiveKeywords {
		if strings.Contains(name, kw) {
			score += 8
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(name, kw) {
			score -= 10
		}
	}
	if score > 95 {
		score = 95
	}
	if score < 10 {
		score = 10
	}

	highSugar := false
	for _, kw := range sugarKeywords {
		if strings.Contains(name, kw) {
			highSugar = true
			break
		}
	}

	sub := make(map[analysis.Category]analysis.Score, len(analysis.Categories()))
	for _, cat := range analysis.Categories() {
		sub[cat] = analysis.Score(score)
	}
	if highSugar {
		sub[analysis.CategoryBloodSugar] = analysis.Score(max(0, score-20))
	}

	return analysis.RawAnalysis{
		FoodName:     strings.TrimSpace(foodName),
		OverallScore: analysis.Score(score),
		SubScores:    sub,
		Completeness: analysis.CompletenessEstimated,
		Source:       analysis.SourceReconstructed,
		HighSugar:    highSugar,
		Timestamp:    now,
	}
}

var positiveKeywords = []string{
	"salmon", "sardine", "mackerel", "fish",
	"spinach", "kale", "broccoli", "vegetable", "salad", "greens",
	"berry", "berries", "apple", "avocado",
	"lentil", "bean", "legume", "chickpea",
	"walnut", "almond", "nut", "seed",
	"olive", "whole grain", "oat", "quinoa",
	"grilled", "steamed", "baked",
}

var negativeKeywords = []string{
	"fried", "deep-fried", "battered",
	"bacon", "sausage", "hot dog", "processed",
	"candy", "soda", "cola", "donut", "doughnut",
	"cake", "cookie", "pastry", "ice cream",
	"white bread", "chips", "fries",
}

var sugarKeywords = []string{
	"candy", "soda", "cola", "donut", "doughnut", "cake", "cookie",
	"pastry", "ice cream", "syrup", "sweetened", "milkshake", "juice",
}
