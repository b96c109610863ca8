package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFixture(overall Score, subs map[Category]Score, highSugar bool) RawAnalysis {
	return RawAnalysis{
		FoodName:     "test food",
		OverallScore: overall,
		SubScores:    subs,
		Completeness: CompletenessComplete,
		Source:       SourcePrimary,
		HighSugar:    highSugar,
		Timestamp:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestNormalizeHighSugarScenario(t *testing.T) {
	// overall 40, sugar flag set: bloodSugar may drop to 40-25=15 but the
	// upper bound stays at 40+20=60, so 90 clamps down to 60.
	raw := rawFixture(40, map[Category]Score{
		CategoryBloodSugar:  90,
		CategoryHeartHealth: 50,
	}, true)

	n := Normalize(raw)

	assert.Equal(t, Score(60), n.SubScores[CategoryBloodSugar])
	assert.Equal(t, Score(50), n.SubScores[CategoryHeartHealth])
	assert.Equal(t, Score(40), n.OverallScore)
}

func TestNormalizeSugarLowerBound(t *testing.T) {
	raw := rawFixture(40, map[Category]Score{CategoryBloodSugar: 5}, true)
	n := Normalize(raw)
	// extended lower bound: max(0, 40-25) = 15
	assert.Equal(t, Score(15), n.SubScores[CategoryBloodSugar])

	// without the flag the standard band applies: max(0, 40-20) = 20
	raw.HighSugar = false
	n = Normalize(raw)
	assert.Equal(t, Score(20), n.SubScores[CategoryBloodSugar])
}

func TestNormalizeBenefitUpperException(t *testing.T) {
	// overall 85 >= 70: heartHealth allowed [70,100], so 99 survives.
	raw := rawFixture(85, map[Category]Score{CategoryHeartHealth: 99}, false)
	n := Normalize(raw)
	assert.Equal(t, Score(99), n.SubScores[CategoryHeartHealth])
}

func TestNormalizeCoherenceBound(t *testing.T) {
	cases := []struct {
		name    string
		overall Score
		cat     Category
		in      Score
		want    Score
	}{
		{"low overall clamps up", 30, CategoryEnergy, 95, 50},
		{"low overall clamps down", 30, CategoryEnergy, 2, 10},
		{"low overall in band", 45, CategoryImmune, 60, 60},
		{"high overall clamps up", 80, CategoryBrainHealth, 100, 95},
		{"high overall clamps down", 80, CategoryBrainHealth, 10, 65},
		{"band floor at zero", 10, CategoryEnergy, 0, 0},
		{"band ceiling at hundred", 95, CategoryEnergy, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := rawFixture(tc.overall, map[Category]Score{tc.cat: tc.in}, false)
			n := Normalize(raw)
			assert.Equal(t, tc.want, n.SubScores[tc.cat])
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := rawFixture(40, map[Category]Score{
		CategoryBloodSugar:       90,
		CategoryHeartHealth:      5,
		CategoryAntiInflammation: 55,
		CategoryBrainHealth:      ScoreUnavailable,
	}, true)

	once := Normalize(raw)
	twice := Normalize(once.RawAnalysis)
	assert.Equal(t, once, twice)
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := rawFixture(72, map[Category]Score{
		CategoryHeartHealth: 95,
		CategoryBloodSugar:  30,
		CategoryEnergy:      ScoreUnavailable,
	}, false)

	a := Normalize(raw)
	b := Normalize(raw)

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, aj, bj, "identical input must yield byte-identical output")
}

func TestNormalizeMissingOverall(t *testing.T) {
	raw := rawFixture(ScoreUnavailable, map[Category]Score{CategoryEnergy: 88}, false)
	n := Normalize(raw)

	assert.Equal(t, CompletenessUnavailable, n.Completeness)
	assert.Equal(t, Score(88), n.SubScores[CategoryEnergy], "sub-scores pass through untouched without an overall")
	assert.Equal(t, ScoreUnavailable, n.OverallScore)
}

func TestNormalizeKeepsUnavailableSubScores(t *testing.T) {
	raw := rawFixture(50, map[Category]Score{
		CategoryEnergy: ScoreUnavailable,
		CategoryImmune: 55,
	}, false)
	n := Normalize(raw)

	assert.Equal(t, ScoreUnavailable, n.SubScores[CategoryEnergy], "clamping never manufactures a value")
	assert.Equal(t, Score(55), n.SubScores[CategoryImmune])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	subs := map[Category]Score{CategoryEnergy: 99}
	raw := rawFixture(30, subs, false)

	_ = Normalize(raw)

	assert.Equal(t, Score(99), subs[CategoryEnergy])
}

func TestScoreSentinelRoundTrip(t *testing.T) {
	raw := rawFixture(ScoreUnavailable, map[Category]Score{CategoryEnergy: ScoreUnavailable}, false)

	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var back RawAnalysis
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ScoreUnavailable, back.OverallScore)
	assert.Equal(t, ScoreUnavailable, back.SubScores[CategoryEnergy])
	assert.False(t, back.SubScores[CategoryEnergy].Available())
}
