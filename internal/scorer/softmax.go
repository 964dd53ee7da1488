package scorer

import "math"

// Softmax converts one row of raw logits to a probability vector. The max
// is subtracted before exponentiating so large logits don't overflow.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l - maxLogit))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest entry. Ties go to the lowest
// index. Returns -1 for an empty vector.
func Argmax(p []float64) int {
	if len(p) == 0 {
		return -1
	}
	k := 0
	for i, v := range p {
		if v > p[k] {
			k = i
		}
	}
	return k
}
