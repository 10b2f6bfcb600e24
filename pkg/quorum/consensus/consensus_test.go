package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundaryCases(t *testing.T) {
	c := NewCalculator()

	// No disagreement is possible with zero or one response
	assert.Equal(t, 1.0, c.Score(nil))
	assert.Equal(t, 1.0, c.Score([]string{}))
	assert.Equal(t, 1.0, c.Score([]string{"only answer"}))

	// Empty contents are skipped before pairing
	assert.Equal(t, 1.0, c.Score([]string{"only answer", "", "   "}))
}

func TestIdenticalContentScoresOne(t *testing.T) {
	c := NewCalculator()
	answer := "The capital of France is Paris."
	assert.Equal(t, 1.0, c.Score([]string{answer, answer, answer}))
}

func TestDisjointContentScoresZero(t *testing.T) {
	c := NewCalculator()
	assert.Equal(t, 0.0, c.Score([]string{
		"alpha bravo charlie",
		"delta echo foxtrot",
	}))
}

func TestNormalizationIgnoresCaseAndPunctuation(t *testing.T) {
	c := NewCalculator()
	score := c.Score([]string{
		"Paris is the capital of France.",
		"paris is the capital of france",
	})
	assert.Equal(t, 1.0, score)
}

func TestPartialOverlap(t *testing.T) {
	// Sets {a,b,c} and {a,b,d}: intersection 2, union 4
	assert.InDelta(t, 0.5, Jaccard("a b c", "a b d"), 1e-9)
}

func TestMeanPairwise(t *testing.T) {
	c := NewCalculator()
	// Pairs: (x,x)=1, (x,y)=0, (x,y)=0 -> mean 1/3
	score := c.Score([]string{"alpha", "alpha", "omega"})
	assert.InDelta(t, 1.0/3.0, score, 1e-9)
}

func TestNearIdenticalContentScoresHigh(t *testing.T) {
	c := NewCalculator()
	score := c.Score([]string{
		"Use a mutex to guard the shared counter before incrementing it.",
		"Use a mutex to guard the shared counter before incrementing it carefully.",
	})
	assert.GreaterOrEqual(t, score, 0.8)
}

func TestCustomSimilarity(t *testing.T) {
	c := NewCalculatorWith(func(a, b string) float64 { return 0.25 })
	assert.InDelta(t, 0.25, c.Score([]string{"x", "y", "z"}), 1e-9)

	// nil falls back to Jaccard
	fallback := NewCalculatorWith(nil)
	assert.Equal(t, 1.0, fallback.Score([]string{"same", "same"}))
}
