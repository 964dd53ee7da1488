package binwise

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/dataset"
	"github.com/veldran/binwise/internal/pipeline"
	"github.com/veldran/binwise/internal/scorer"
)

// Result is one calibrated probability vector. Calibrated is false when the
// example's top-1 confidence had no validation coverage and was passed
// through unmodified.
type Result struct {
	Probs      []float64
	Calibrated bool
}

// Bin describes one confidence interval of a fitted table.
type Bin struct {
	Lower    float64
	Upper    float64
	Accuracy float64 // meaningful only when Defined
	Count    int     // validation examples observed in the bin
	Defined  bool
}

// ErrNotFitted is returned by calibration calls before a table exists.
var ErrNotFitted = errors.New("binwise: not fitted; call Fit, FitFromScores, or LoadTable first")

// Binwise owns a calibration table and, optionally, the scorer used to fit
// it. Fit once (not concurrently), then calibrate from any number of
// goroutines.
type Binwise struct {
	opts  options
	table *calib.Table
}

// New creates a Binwise instance. No model is loaded until Fit needs one.
func New(opts ...Option) (*Binwise, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bins < 1 {
		return nil, fmt.Errorf("binwise: bins must be >= 1, got %d", o.bins)
	}
	return &Binwise{opts: o}, nil
}

// Fit runs the configured ONNX classifier over the validation split at
// splitDir and fits the calibration table from its top-1 confidences.
func (b *Binwise) Fit(ctx context.Context, splitDir string) error {
	if b.opts.modelPath == "" {
		return errors.New("binwise: no model path configured; use WithModelPath or FitFromScores")
	}

	split, err := dataset.Load(splitDir)
	if err != nil {
		return fmt.Errorf("binwise: %w", err)
	}
	sc, err := scorer.New(b.opts.modelPath)
	if err != nil {
		return fmt.Errorf("binwise: %w", err)
	}
	defer sc.Close()

	p := pipeline.New(sc, b.opts.bins, b.opts.batchSize, b.opts.workers)
	table, err := p.Fit(ctx, split)
	if err != nil {
		return fmt.Errorf("binwise: %w", err)
	}
	b.table = table
	return nil
}

// FitFromScores fits the calibration table directly from validation top-1
// confidences and correctness flags, with no classifier involved.
func (b *Binwise) FitFromScores(confidences []float64, correct []bool) error {
	table, err := calib.Fit(confidences, correct, b.opts.bins)
	if err != nil {
		return fmt.Errorf("binwise: %w", err)
	}
	b.table = table
	return nil
}

// Lookup returns the calibrated posterior for a raw top-1 confidence, with
// ok=false when the confidence falls in a bin with no validation coverage.
func (b *Binwise) Lookup(query float64) (value float64, ok bool, err error) {
	if b.table == nil {
		return 0, false, ErrNotFitted
	}
	return b.table.Lookup(query)
}

// Calibrate rescales one probability vector around its calibrated top-1.
func (b *Binwise) Calibrate(p []float64) (Result, error) {
	if b.table == nil {
		return Result{}, ErrNotFitted
	}
	r, err := b.table.Calibrate(p)
	if err != nil {
		return Result{}, err
	}
	return Result(r), nil
}

// CalibrateBatch calibrates each vector independently around its own argmax.
func (b *Binwise) CalibrateBatch(batch [][]float64) ([]Result, error) {
	if b.table == nil {
		return nil, ErrNotFitted
	}
	rs, err := b.table.CalibrateBatch(batch)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = Result(r)
	}
	return out, nil
}

// Bins returns the fitted table's bins with their confidence ranges.
func (b *Binwise) Bins() ([]Bin, error) {
	if b.table == nil {
		return nil, ErrNotFitted
	}
	n := b.table.NBins()
	out := make([]Bin, n)
	for i, bin := range b.table.Bins() {
		out[i] = Bin{
			Lower:    float64(i) / float64(n),
			Upper:    float64(i+1) / float64(n),
			Accuracy: bin.Accuracy,
			Count:    bin.Count,
			Defined:  bin.Defined(),
		}
	}
	return out, nil
}

// Mapping returns the confidence-to-posterior curve on a uniform grid of
// points, for visualization. The sequence is lazy and restartable.
func (b *Binwise) Mapping(points int) (iter.Seq2[float64, float64], error) {
	if b.table == nil {
		return nil, ErrNotFitted
	}
	return b.table.Mapping(points), nil
}

// SaveTable persists the fitted table to path.
func (b *Binwise) SaveTable(path string) error {
	if b.table == nil {
		return ErrNotFitted
	}
	return calib.Save(path, b.table)
}

// LoadTable replaces the current table with one previously saved.
func (b *Binwise) LoadTable(path string) error {
	table, err := calib.Load(path)
	if err != nil {
		return err
	}
	b.table = table
	return nil
}
