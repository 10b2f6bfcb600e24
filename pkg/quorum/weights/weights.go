// Package weights converts reliability records into a normalized weight
// distribution over the models that succeeded in the current batch.
package weights

import (
	"math"
	"sort"

	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

// Distribution maps model id to weight. A non-empty distribution sums to
// 1 within 1e-9; models absent from the map have weight 0.
type Distribution map[string]float64

// Calculator computes w = quality^a * success^b before normalization
type Calculator struct {
	// QualityExponent is a in the weight formula (default 1)
	QualityExponent float64

	// SuccessExponent is b in the weight formula (default 1)
	SuccessExponent float64
}

// NewCalculator returns a calculator with the default exponents
func NewCalculator() *Calculator {
	return &Calculator{QualityExponent: 1, SuccessExponent: 1}
}

// Compute builds the distribution from the records of the models that
// produced a successful response in this batch. Models that failed are
// simply not passed in; they get weight 0 by omission. When every raw
// product is zero (reachable right after initialization) the distribution
// falls back to uniform over the successful models rather than dividing
// by zero or discarding every candidate.
func (c *Calculator) Compute(records []tracker.Record) Distribution {
	if len(records) == 0 {
		return Distribution{}
	}

	dist := make(Distribution, len(records))
	total := 0.0
	for _, rec := range records {
		w := math.Pow(rec.QualityEMA, c.QualityExponent) *
			math.Pow(rec.SuccessEMA, c.SuccessExponent)
		dist[rec.ModelID] = w
		total += w
	}

	if total == 0 {
		uniform := 1.0 / float64(len(records))
		for id := range dist {
			dist[id] = uniform
		}
		return dist
	}

	for id := range dist {
		dist[id] /= total
	}
	return dist
}

// Sum returns the total weight
func (d Distribution) Sum() float64 {
	total := 0.0
	for _, w := range d {
		total += w
	}
	return total
}

// Ranked returns the model ids by descending weight. Equal weights keep
// their relative registry order, supplied through position, so a ranking
// is deterministic across runs.
func (d Distribution) Ranked(position func(id string) int) []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		wi, wj := d[ids[i]], d[ids[j]]
		if wi != wj {
			return wi > wj
		}
		return position(ids[i]) < position(ids[j])
	})
	return ids
}

// Top returns the highest-weighted model id, with ties broken by registry
// position. ok is false for an empty distribution.
func (d Distribution) Top(position func(id string) int) (id string, ok bool) {
	ranked := d.Ranked(position)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0], true
}
