package analysis

// Tolerance bands between a sub-score and the overall score. Low-scoring
// foods get the wider band; named exceptions below encode the asymmetries
// that are justified for specific categories.
const (
	bandLowOverall  = 20 // overall <= 50
	bandHighOverall = 15 // overall > 50

	// bloodSugar may deviate further below the mean for high-sugar foods
	sugarLowerBound = 25
	// heartHealth/antiInflammation upper bound once overall >= 70
	benefitUpperBound   = 15
	benefitOverallFloor = 70
)

// Normalize clamps every available sub-score into the coherence band around
// the overall score. Pure: identical input always yields identical output,
// and the input record is never mutated. It cannot fail; without an overall
// score coherence is undefined, so the record is passed through with
// completeness marked unavailable.
func Normalize(raw RawAnalysis) NormalizedAnalysis {
	out := raw
	out.SubScores = cloneScores(raw.SubScores)

	if !raw.OverallScore.Available() {
		out.Completeness = CompletenessUnavailable
		return NormalizedAnalysis{RawAnalysis: out}
	}

	overall := int(raw.OverallScore)
	band := bandHighOverall
	if overall <= 50 {
		band = bandLowOverall
	}

	for cat, score := range out.SubScores {
		if !score.Available() {
			continue // never manufacture a value for a missing category
		}

		lower, upper := band, band
		switch cat {
		case CategoryBloodSugar:
			if raw.HighSugar {
				lower = sugarLowerBound
			}
		case CategoryHeartHealth, CategoryAntiInflammation:
			if overall >= benefitOverallFloor {
				upper = benefitUpperBound
			}
		}

		low := max(0, overall-lower)
		high := min(100, overall+upper)
		out.SubScores[cat] = Score(min(high, max(low, int(score))))
	}

	return NormalizedAnalysis{RawAnalysis: out}
}

func cloneScores(in map[Category]Score) map[Category]Score {
	if in == nil {
		return nil
	}
	out := make(map[Category]Score, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
