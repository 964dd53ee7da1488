package calib

import (
	"errors"
	"fmt"
)

// Result is one calibrated probability vector. Calibrated is false when the
// example's top-1 confidence fell into a bin with no validation coverage; in
// that case the top-1 entry was passed through unmodified rather than
// invented, and downstream consumers decide whether to discard or fall back.
type Result struct {
	Probs      []float64
	Calibrated bool
}

// Lookup returns the calibrated posterior for a raw top-1 confidence score.
// The query must lie in [0,1]; anything else is a precondition violation and
// returns an error. When the query's bin is undefined, Lookup returns the
// query itself with ok=false.
func (t *Table) Lookup(query float64) (value float64, ok bool, err error) {
	// NaN compares false to everything, so check membership, not exclusion.
	if !(query >= 0 && query <= 1) {
		return 0, false, fmt.Errorf("calib: query %v outside [0,1]", query)
	}
	b := t.bins[binIndex(query, len(t.bins))]
	if !b.Defined() {
		return query, false, nil
	}
	return b.Accuracy, true, nil
}

// Calibrate replaces the top-1 probability of p with its binned posterior and
// linearly rescales the remaining classes so the vector sums to 1. The input
// must be non-negative; it is not mutated. A one-hot input has no remaining
// mass to rescale, so the remainder is split uniformly over the other
// classes. The output argmax may differ from the input argmax when the
// posterior estimate is low; that is the method working as intended.
func (t *Table) Calibrate(p []float64) (Result, error) {
	if len(p) == 0 {
		return Result{}, errors.New("calib: empty probability vector")
	}
	k := 0
	for i, v := range p {
		if !(v >= 0) {
			return Result{}, fmt.Errorf("calib: invalid probability %v at index %d", v, i)
		}
		if v > p[k] {
			k = i
		}
	}

	est, ok, err := t.Lookup(p[k])
	if err != nil {
		return Result{}, err
	}

	out := make([]float64, len(p))
	var rest float64
	for i, v := range p {
		if i != k {
			rest += v
		}
	}
	if rest > 0 {
		scale := (1 - est) / rest
		for i, v := range p {
			if i != k {
				out[i] = v * scale
			}
		}
	} else if len(p) > 1 {
		share := (1 - est) / float64(len(p)-1)
		for i := range out {
			if i != k {
				out[i] = share
			}
		}
	}
	out[k] = est

	// Force an exact unit sum despite floating-point drift.
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return Result{Probs: out, Calibrated: ok}, nil
}

// CalibrateBatch calibrates each vector independently, using that vector's
// own argmax. It is a plain loop over Calibrate: there is exactly one
// rescaling algorithm, and the batched path cannot drift from the scalar one.
func (t *Table) CalibrateBatch(batch [][]float64) ([]Result, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	results := make([]Result, len(batch))
	for i, p := range batch {
		r, err := t.Calibrate(p)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		results[i] = r
	}
	return results, nil
}
