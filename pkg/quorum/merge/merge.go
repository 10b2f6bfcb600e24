// Package merge turns weighted candidates into one final answer.
package merge

import (
	"errors"
	"strings"

	"github.com/quorumlabs/quorum/pkg/quorum/dispatch"
	"github.com/quorumlabs/quorum/pkg/quorum/weights"
)

// Selection is the chosen answer plus the models that contributed to it
type Selection struct {
	Content string
	Models  []string
}

// Selector decides the final content given this batch's successful
// candidates and their weight distribution. Implementations must be
// deterministic for fixed weights and a fixed tie-break order.
type Selector interface {
	Select(candidates []dispatch.Candidate, dist weights.Distribution, position func(id string) int) (Selection, error)
}

// ErrNoCandidates means no successful candidate was available to select
var ErrNoCandidates = errors.New("no candidates to select from")

// WeightedPlurality picks the content of the highest-weighted successful
// candidate. Ties fall back to registry order. This is the default policy.
type WeightedPlurality struct{}

// NewWeightedPlurality returns the default selector
func NewWeightedPlurality() *WeightedPlurality {
	return &WeightedPlurality{}
}

// Select implements Selector
func (s *WeightedPlurality) Select(candidates []dispatch.Candidate, dist weights.Distribution, position func(id string) int) (Selection, error) {
	byID := successfulByID(candidates)
	if len(byID) == 0 {
		return Selection{}, ErrNoCandidates
	}

	top, ok := dist.Top(position)
	if !ok {
		return Selection{}, ErrNoCandidates
	}

	cand, ok := byID[top]
	if !ok {
		return Selection{}, ErrNoCandidates
	}

	return Selection{Content: cand.Content, Models: []string{top}}, nil
}

// Blend concatenates the top-K candidates in weight order, an optional
// synthesis policy for callers that want more than one voice in the
// answer.
type Blend struct {
	K         int
	Separator string
}

// NewBlend returns a blend selector over the top k candidates
func NewBlend(k int) *Blend {
	if k < 1 {
		k = 2
	}
	return &Blend{K: k, Separator: "\n\n"}
}

// Select implements Selector
func (b *Blend) Select(candidates []dispatch.Candidate, dist weights.Distribution, position func(id string) int) (Selection, error) {
	byID := successfulByID(candidates)
	if len(byID) == 0 {
		return Selection{}, ErrNoCandidates
	}

	var contents []string
	var models []string
	for _, id := range dist.Ranked(position) {
		cand, ok := byID[id]
		if !ok {
			continue
		}
		contents = append(contents, cand.Content)
		models = append(models, id)
		if len(models) == b.K {
			break
		}
	}

	if len(models) == 0 {
		return Selection{}, ErrNoCandidates
	}

	return Selection{
		Content: strings.Join(contents, b.Separator),
		Models:  models,
	}, nil
}

func successfulByID(candidates []dispatch.Candidate) map[string]dispatch.Candidate {
	byID := make(map[string]dispatch.Candidate, len(candidates))
	for _, cand := range candidates {
		if cand.Succeeded {
			byID[cand.ModelID] = cand
		}
	}
	return byID
}
