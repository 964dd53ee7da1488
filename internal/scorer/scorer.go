package scorer

import (
	"fmt"

	"fortio.org/safecast"
)

// Scorer produces softmax probability vectors for batches of input tensors.
// It is the frozen classifier capability: binwise never trains or mutates
// the underlying model, it only reads scores from it.
type Scorer interface {
	// Score runs inference on a batch of flat per-sample tensors and
	// returns one probability vector per sample.
	Score(batch [][]float32) ([][]float64, error)
	// NumClasses returns the width of the probability vectors.
	NumClasses() int
	Close() error
}

// ONNXScorer runs a pretrained ONNX classification model and converts its
// logits to softmax probabilities. Create once and reuse; Close releases the
// underlying session.
type ONNXScorer struct {
	session *onnxSession
}

// New loads the ONNX model at modelPath and validates that it looks like a
// classifier: a single float32 input and a [batch, numClasses] output.
func New(modelPath string) (*ONNXScorer, error) {
	sess, err := newONNXSession(modelPath)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	return &ONNXScorer{session: sess}, nil
}

// NumClasses returns the model's output class count.
func (s *ONNXScorer) NumClasses() int {
	return s.session.numClasses
}

// SampleSize returns the expected per-sample tensor length (the product of
// the model's non-batch input dimensions).
func (s *ONNXScorer) SampleSize() int {
	return s.session.sampleSize
}

// Score runs one inference call over the batch and softmaxes each row of
// logits. Every sample must have length SampleSize.
func (s *ONNXScorer) Score(batch [][]float32) ([][]float64, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	flat := make([]float32, 0, len(batch)*s.session.sampleSize)
	for i, sample := range batch {
		if len(sample) != s.session.sampleSize {
			return nil, fmt.Errorf("scorer: sample %d has %d values, model expects %d",
				i, len(sample), s.session.sampleSize)
		}
		flat = append(flat, sample...)
	}

	batchSize, err := safecast.Conv[int64](len(batch))
	if err != nil {
		return nil, fmt.Errorf("scorer: batch size: %w", err)
	}

	logits, err := s.session.infer(flat, batchSize)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	n := s.session.numClasses
	out := make([][]float64, len(batch))
	for i := range out {
		out[i] = Softmax(logits[i*n : (i+1)*n])
	}
	return out, nil
}

// Close releases ONNX Runtime resources.
func (s *ONNXScorer) Close() error {
	if s.session != nil {
		return s.session.close()
	}
	return nil
}
