// Package pipeline wires the scorer, dataset, and calibration table into the
// two phases of a calibration session: a single fitting pass over a
// validation split, then per-batch calibration of an evaluation split.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/dataset"
	"github.com/veldran/binwise/internal/scorer"
)

// Pipeline runs fitting and evaluation over a fixed scorer.
type Pipeline struct {
	scorer    scorer.Scorer
	nBins     int
	batchSize int
	workers   int
}

// New creates a Pipeline. nBins and batchSize fall back to their defaults
// when non-positive; workers <= 0 means GOMAXPROCS.
func New(sc scorer.Scorer, nBins, batchSize, workers int) *Pipeline {
	if nBins < 1 {
		nBins = calib.DefaultBins
	}
	if batchSize < 1 {
		batchSize = 256
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{scorer: sc, nBins: nBins, batchSize: batchSize, workers: workers}
}

// Fit scores the validation split batch by batch, collects each example's
// top-1 confidence and correctness, and fits the calibration table.
func (p *Pipeline) Fit(ctx context.Context, split *dataset.Split) (*calib.Table, error) {
	batches := split.Batches(p.batchSize)

	confidences := make([]float64, 0, split.Len())
	correct := make([]bool, 0, split.Len())

	for bi, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		probs, err := p.scorer.Score(b.Samples)
		if err != nil {
			return nil, fmt.Errorf("pipeline fit: batch %d: %w", bi, err)
		}
		for i, pv := range probs {
			k := scorer.Argmax(pv)
			if k < 0 {
				return nil, fmt.Errorf("pipeline fit: batch %d: empty probability vector", bi)
			}
			confidences = append(confidences, pv[k])
			correct = append(correct, k == b.Labels[i])
		}
		slog.Debug("scored validation batch", "batch", bi+1, "total", len(batches))
	}

	table, err := calib.Fit(confidences, correct, p.nBins)
	if err != nil {
		return nil, fmt.Errorf("pipeline fit: %w", err)
	}
	return table, nil
}

// Summary aggregates an evaluation pass over a test split.
type Summary struct {
	Examples          int
	RawCorrect        int // argmax of the raw softmax matches the label
	CalibratedCorrect int // argmax of the calibrated vector matches the label
	Uncalibrated      int // examples whose top-1 hit a bin with no coverage
	ArgmaxMoved       int // examples whose predicted class changed
}

// RawAccuracy returns the uncalibrated top-1 accuracy.
func (s Summary) RawAccuracy() float64 {
	if s.Examples == 0 {
		return 0
	}
	return float64(s.RawCorrect) / float64(s.Examples)
}

// CalibratedAccuracy returns the top-1 accuracy after calibration.
func (s Summary) CalibratedAccuracy() float64 {
	if s.Examples == 0 {
		return 0
	}
	return float64(s.CalibratedCorrect) / float64(s.Examples)
}

// Evaluate scores the test split, calibrates every example against the
// table, and aggregates accuracies. Scoring is sequential (one inference
// session), but calibration runs batch-parallel: the table is read-only, so
// workers only need a concurrency limit, no locking.
func (p *Pipeline) Evaluate(ctx context.Context, table *calib.Table, split *dataset.Split) (Summary, error) {
	batches := split.Batches(p.batchSize)

	scored := make([][][]float64, len(batches))
	for bi, b := range batches {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		probs, err := p.scorer.Score(b.Samples)
		if err != nil {
			return Summary{}, fmt.Errorf("pipeline evaluate: batch %d: %w", bi, err)
		}
		scored[bi] = probs
		slog.Debug("scored test batch", "batch", bi+1, "total", len(batches))
	}

	// Result slots are per-batch, so goroutines never share an index.
	results := make([][]calib.Result, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.workers, max(len(batches), 1)))
	for bi := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rs, err := table.CalibrateBatch(scored[bi])
			if err != nil {
				return fmt.Errorf("pipeline evaluate: batch %d: %w", bi, err)
			}
			results[bi] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var s Summary
	for bi, b := range batches {
		for i := range b.Samples {
			label := b.Labels[i]
			rawK := scorer.Argmax(scored[bi][i])
			calK := scorer.Argmax(results[bi][i].Probs)

			s.Examples++
			if rawK == label {
				s.RawCorrect++
			}
			if calK == label {
				s.CalibratedCorrect++
			}
			if !results[bi][i].Calibrated {
				s.Uncalibrated++
			}
			if calK != rawK {
				s.ArgmaxMoved++
			}
		}
	}
	return s, nil
}
