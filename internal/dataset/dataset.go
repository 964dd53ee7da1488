// Package dataset loads labeled evaluation splits. A split directory holds
// the preprocessed sample tensors in a safetensors file plus a YAML label
// manifest:
//
//	val/
//	  samples.safetensors   # one F32 tensor "samples" of shape [n, d...]
//	  labels.yaml           # labels: [3, 0, 14, ...] and optional classes
//
// Samples are expected already normalized; image decoding and transforms
// happen upstream of binwise.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	samplesFile = "samples.safetensors"
	labelsFile  = "labels.yaml"
)

// Split is an in-memory labeled evaluation split.
type Split struct {
	Samples [][]float32 // one flat tensor per example
	Labels  []int       // true class index per example
	Classes []string    // optional class names, for reporting
	Shape   []int64     // per-sample tensor dims
}

// Batch is a contiguous run of samples handed to the scorer in one call.
// Its slices are views into the Split, not copies.
type Batch struct {
	Samples [][]float32
	Labels  []int
}

type labelManifest struct {
	Classes []string `yaml:"classes"`
	Labels  []int    `yaml:"labels"`
}

// Load reads a split from dir, validating that labels line up with samples.
func Load(dir string) (*Split, error) {
	samples, shape, err := readSamples(filepath.Join(dir, samplesFile))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, labelsFile))
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	var manifest labelManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("dataset: failed to parse %s: %w", labelsFile, err)
	}

	if len(manifest.Labels) != len(samples) {
		return nil, fmt.Errorf("dataset: %d labels for %d samples", len(manifest.Labels), len(samples))
	}
	for i, l := range manifest.Labels {
		if l < 0 {
			return nil, fmt.Errorf("dataset: negative label %d at index %d", l, i)
		}
		if len(manifest.Classes) > 0 && l >= len(manifest.Classes) {
			return nil, fmt.Errorf("dataset: label %d at index %d exceeds %d classes",
				l, i, len(manifest.Classes))
		}
	}

	return &Split{
		Samples: samples,
		Labels:  manifest.Labels,
		Classes: manifest.Classes,
		Shape:   shape,
	}, nil
}

// Len returns the number of examples in the split.
func (s *Split) Len() int { return len(s.Samples) }

// Batches partitions the split into batches of at most size examples, in
// order. The last batch may be short.
func (s *Split) Batches(size int) []Batch {
	if size < 1 {
		size = 1
	}
	var batches []Batch
	for start := 0; start < len(s.Samples); start += size {
		end := min(start+size, len(s.Samples))
		batches = append(batches, Batch{
			Samples: s.Samples[start:end],
			Labels:  s.Labels[start:end],
		})
	}
	return batches
}
