package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const coherentText = "Distributed consensus is the problem of getting a set of " +
	"nodes to agree on a value. Protocols such as Raft and Paxos solve it by " +
	"electing a leader, replicating a log, and committing entries once a " +
	"majority acknowledges them. The approach tolerates minority failures; " +
	"progress stalls only when no quorum can be formed."

func TestBlankScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, Score(""))
	assert.Equal(t, 0.0, Score("   \n\t  "))
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{
		"x",
		"Short.",
		coherentText,
		strings.Repeat("word ", 2000),
		strings.Repeat("same same same same ", 50),
	}
	for _, in := range inputs {
		s := Score(in)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestCoherentBeatsShort(t *testing.T) {
	assert.Greater(t, Score(coherentText), Score("Short."))
}

func TestDeterminism(t *testing.T) {
	first := Score(coherentText)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(coherentText))
	}
}

func TestRepetitionPenalty(t *testing.T) {
	varied := coherentText
	degenerate := strings.Repeat("consensus consensus consensus. ", 20)
	assert.Greater(t, Score(varied), Score(degenerate))
}

func TestPaddingPenalty(t *testing.T) {
	padded := coherentText + " " + strings.Repeat("Additionally, further elaboration follows here with more distinct filler content each time. ", 120)
	assert.Greater(t, Score(coherentText), Score(padded))
}

func TestStructureRewarded(t *testing.T) {
	// Same words, one as flowing sentences with punctuation, one as a
	// single run-on without any.
	structured := "First, replicate the log. Then, commit entries; finally, apply them. Does it tolerate failures? Yes."
	flat := "first replicate the log then commit entries finally apply them does it tolerate failures yes"
	assert.Greater(t, Score(structured), Score(flat))
}
