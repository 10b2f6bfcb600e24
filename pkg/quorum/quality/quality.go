// Package quality scores response text deterministically.
//
// The score is a fixed blend of three bounded sub-signals:
//
//	score = 0.4*lengthBand + 0.3*structure + 0.3*(1-repetition)
//
// lengthBand rewards word counts inside [minWords, maxWords] and ramps
// linearly outside it, structure rewards multiple sentences and punctuation
// variety, and repetition is one minus the distinct-word ratio. Blank or
// whitespace-only content always scores exactly 0. The formula is a
// replaceable strategy; the orchestrator only depends on the Assessor
// function type.
package quality

import (
	"strings"
	"unicode"
)

const (
	minWords = 10
	maxWords = 400

	lengthWeight     = 0.4
	structureWeight  = 0.3
	repetitionWeight = 0.3
)

// Assessor maps response text to a score in [0,1]
type Assessor func(text string) float64

// Score is the default Assessor
func Score(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	words := strings.Fields(trimmed)

	score := lengthWeight*lengthScore(len(words)) +
		structureWeight*structureScore(trimmed) +
		repetitionWeight*distinctRatio(words)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// lengthScore is 1 inside the word band, ramping linearly to 0 at zero
// words and decaying toward 0.25 for heavily padded responses.
func lengthScore(words int) float64 {
	switch {
	case words <= 0:
		return 0
	case words < minWords:
		return float64(words) / float64(minWords)
	case words <= maxWords:
		return 1
	default:
		// Padding past the band loses credit but never goes below 0.25;
		// an overlong answer still beats an empty one.
		excess := float64(words-maxWords) / float64(maxWords)
		s := 1 - excess*0.5
		if s < 0.25 {
			return 0.25
		}
		return s
	}
}

// structureScore rewards multi-sentence answers and punctuation variety.
func structureScore(text string) float64 {
	score := 0.0

	sentences := 0
	seen := make(map[rune]bool)
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			sentences++
			seen[r] = true
		case ',', ';', ':':
			seen[r] = true
		}
	}

	if sentences >= 1 {
		score += 0.4
	}
	if sentences >= 2 {
		score += 0.3
	}

	// Up to 0.3 for variety, saturating at three distinct marks
	variety := float64(len(seen)) / 3.0
	if variety > 1 {
		variety = 1
	}
	score += 0.3 * variety

	return score
}

// distinctRatio is the share of distinct words; degenerate repetition
// drives it toward zero.
func distinctRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	distinct := make(map[string]bool, len(words))
	for _, w := range words {
		distinct[normalizeWord(w)] = true
	}

	return float64(len(distinct)) / float64(len(words))
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))
}
