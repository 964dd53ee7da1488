package calib

import "iter"

// DefaultMappingPoints is the grid resolution used by the CLI when sampling
// the mapping curve.
const DefaultMappingPoints = 1000

// Mapping returns the fitted confidence-to-posterior curve sampled on a
// uniform grid of points spanning [0,1] inclusive. The sequence is lazy and
// restartable; iterating it has no side effects. Undefined bins show through
// as the identity mapping, matching Lookup's passthrough behavior. Intended
// for external visualization of the table.
func (t *Table) Mapping(points int) iter.Seq2[float64, float64] {
	if points < 2 {
		points = 2
	}
	return func(yield func(float64, float64) bool) {
		for i := 0; i < points; i++ {
			q := float64(i) / float64(points-1)
			v, _, _ := t.Lookup(q)
			if !yield(q, v) {
				return
			}
		}
	}
}
