// Package consensus measures agreement among candidate responses.
//
// Agreement is the mean pairwise similarity over all pairs of non-empty
// contents. The default similarity is Jaccard overlap of normalized token
// sets (case-folded, punctuation-stripped): identical content scores 1,
// token-disjoint content scores 0. The metric is replaceable through
// SimilarityFunc.
package consensus

import (
	"strings"
	"unicode"
)

// SimilarityFunc compares two texts and returns a score in [0,1]
type SimilarityFunc func(a, b string) float64

// Calculator scores batches of responses
type Calculator struct {
	similarity SimilarityFunc
}

// NewCalculator returns a calculator using Jaccard token-set similarity
func NewCalculator() *Calculator {
	return &Calculator{similarity: Jaccard}
}

// NewCalculatorWith returns a calculator using a custom similarity metric
func NewCalculatorWith(similarity SimilarityFunc) *Calculator {
	if similarity == nil {
		similarity = Jaccard
	}
	return &Calculator{similarity: similarity}
}

// Score reports agreement across contents in [0,1]. Zero or one response
// scores exactly 1.0: there is nothing to disagree with. Empty contents
// are skipped before pairing.
func (c *Calculator) Score(contents []string) float64 {
	var usable []string
	for _, content := range contents {
		if strings.TrimSpace(content) != "" {
			usable = append(usable, content)
		}
	}

	if len(usable) <= 1 {
		return 1.0
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			total += c.similarity(usable[i], usable[j])
			pairs++
		}
	}

	return total / float64(pairs)
}

// Jaccard computes |A∩B| / |A∪B| over normalized token sets
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, field := range strings.Fields(text) {
		token := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if token != "" {
			set[token] = true
		}
	}
	return set
}
