package calib

import "fmt"

// DefaultBins is the bin count used when callers don't specify one.
// It trades bin resolution against per-bin sample sufficiency.
const DefaultBins = 15

// Bin holds the empirical accuracy observed for one confidence interval,
// together with the number of validation examples that produced it.
// A bin with Count == 0 has no coverage and its Accuracy carries no meaning;
// check Defined before reading it.
type Bin struct {
	Accuracy float64
	Count    int
}

// Defined reports whether any validation example landed in the bin.
func (b Bin) Defined() bool { return b.Count > 0 }

// Table maps top-1 confidence scores to empirical accuracies over equal-width
// bins partitioning [0,1]. A Table is immutable once fitted and safe for
// concurrent lookups from any number of goroutines.
type Table struct {
	bins []Bin
}

// Fit builds a Table from (confidence, correctness) pairs collected over a
// held-out validation set. Bins are right-inclusive: bin i covers
// (i/n, (i+1)/n], with confidence exactly 0 assigned to bin 0. A bin no
// example falls into stays undefined rather than being given an invented
// accuracy.
func Fit(confidences []float64, correct []bool, nBins int) (*Table, error) {
	if nBins < 1 {
		return nil, fmt.Errorf("calib: bin count must be >= 1, got %d", nBins)
	}
	if len(confidences) != len(correct) {
		return nil, fmt.Errorf("calib: %d confidences but %d correctness flags",
			len(confidences), len(correct))
	}

	counts := make([]int, nBins)
	hits := make([]int, nBins)
	for i, c := range confidences {
		if !(c >= 0 && c <= 1) {
			return nil, fmt.Errorf("calib: confidence %v at index %d outside [0,1]", c, i)
		}
		idx := binIndex(c, nBins)
		counts[idx]++
		if correct[i] {
			hits[idx]++
		}
	}

	bins := make([]Bin, nBins)
	for i, n := range counts {
		if n > 0 {
			bins[i] = Bin{Accuracy: float64(hits[i]) / float64(n), Count: n}
		}
	}
	return &Table{bins: bins}, nil
}

// NBins returns the number of bins the table was fitted with.
func (t *Table) NBins() int { return len(t.bins) }

// Bin returns the i-th bin. Panics if i is out of range, like slice indexing.
func (t *Table) Bin(i int) Bin { return t.bins[i] }

// Bins returns a copy of the table's bins, in confidence order.
func (t *Table) Bins() []Bin {
	out := make([]Bin, len(t.bins))
	copy(out, t.bins)
	return out
}

// binIndex returns the bin a confidence value falls into. It is the single
// binning rule shared by fitting and lookup, so the two can never disagree
// on boundary values. Bins are right-inclusive; 0 goes to bin 0.
func binIndex(c float64, nBins int) int {
	if c == 0 {
		return 0
	}
	for i := 1; i < nBins; i++ {
		if c <= float64(i)/float64(nBins) {
			return i - 1
		}
	}
	return nBins - 1
}
