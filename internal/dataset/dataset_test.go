package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeSplit materializes a split directory with the given samples and a
// labels.yaml, returning the directory.
func writeSplit(t *testing.T, samples [][]float32, shape []int, labelsYAML string) string {
	t.Helper()
	dir := t.TempDir()

	header := fmt.Sprintf(`{"samples":{"dtype":"F32","shape":%s,"data_offsets":[0,%d]}}`,
		shapeJSON(append([]int{len(samples)}, shape...)), 4*len(samples)*sampleLen(shape))

	buf := make([]byte, 0, 8+len(header)+4*len(samples)*sampleLen(shape))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	for _, s := range samples {
		for _, v := range s {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, samplesFile), buf, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, labelsFile), []byte(labelsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func shapeJSON(shape []int) string {
	s := "["
	for i, d := range shape {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprint(d)
	}
	return s + "]"
}

func sampleLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func TestLoadSplit(t *testing.T) {
	samples := [][]float32{
		{1, 2, 3, 4, 5, 6},
		{6, 5, 4, 3, 2, 1},
		{0, 0, 0, 0, 0, 0.5},
	}
	dir := writeSplit(t, samples, []int{2, 3}, "classes: [cat, dog]\nlabels: [0, 1, 0]\n")

	split, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if split.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", split.Len())
	}
	if diff := cmp.Diff(samples, split.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 0}, split.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cat", "dog"}, split.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 3}, split.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithoutClassNames(t *testing.T) {
	dir := writeSplit(t, [][]float32{{1, 2}}, []int{2}, "labels: [7]\n")
	split, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if split.Labels[0] != 7 {
		t.Errorf("label = %d, want 7 (unbounded without a class list)", split.Labels[0])
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(t *testing.T) string
	}{
		{"missing dir", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") }},
		{"label count mismatch", func(t *testing.T) string {
			return writeSplit(t, [][]float32{{1}, {2}}, []int{1}, "labels: [0]\n")
		}},
		{"negative label", func(t *testing.T) string {
			return writeSplit(t, [][]float32{{1}}, []int{1}, "labels: [-2]\n")
		}},
		{"label out of class range", func(t *testing.T) string {
			return writeSplit(t, [][]float32{{1}}, []int{1}, "classes: [only]\nlabels: [1]\n")
		}},
		{"garbage yaml", func(t *testing.T) string {
			return writeSplit(t, [][]float32{{1}}, []int{1}, "labels: [0\n")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(tc.setup(t)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadSamplesRejectsBadTensors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, samplesFile)

	// Truncated file.
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readSamples(path); err == nil {
		t.Error("expected error for truncated file")
	}

	// Wrong dtype.
	header := `{"samples":{"dtype":"F64","shape":[1,1],"data_offsets":[0,8]}}`
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 8)...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readSamples(path); err == nil {
		t.Error("expected error for non-F32 dtype")
	}

	// Missing tensor name.
	header = `{"weights":{"dtype":"F32","shape":[1,1],"data_offsets":[0,4]}}`
	buf = binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 4)...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readSamples(path); err == nil {
		t.Error("expected error for missing 'samples' tensor")
	}

	// Data size inconsistent with shape.
	header = `{"samples":{"dtype":"F32","shape":[2,2],"data_offsets":[0,4]}}`
	buf = binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 4)...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readSamples(path); err == nil {
		t.Error("expected error for shape/data mismatch")
	}

	// Negative offsets must be rejected, not read out of the header bytes.
	for _, offsets := range []string{"[-100,-96]", "[-60,-56]", "[4,0]"} {
		header = `{"samples":{"dtype":"F32","shape":[1,1],"data_offsets":` + offsets + `}}`
		buf = binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
		buf = append(buf, header...)
		buf = append(buf, make([]byte, 4)...)
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := readSamples(path); err == nil {
			t.Errorf("expected error for data_offsets %s", offsets)
		}
	}
}

func TestBatches(t *testing.T) {
	split := &Split{
		Samples: [][]float32{{1}, {2}, {3}, {4}, {5}},
		Labels:  []int{0, 1, 2, 3, 4},
	}

	batches := split.Batches(2)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0].Samples) != 2 || len(batches[1].Samples) != 2 || len(batches[2].Samples) != 1 {
		t.Errorf("batch sizes = %d/%d/%d, want 2/2/1",
			len(batches[0].Samples), len(batches[1].Samples), len(batches[2].Samples))
	}
	if batches[2].Labels[0] != 4 {
		t.Errorf("last batch label = %d, want 4", batches[2].Labels[0])
	}

	// Batch size larger than the split: everything in one batch.
	if got := split.Batches(100); len(got) != 1 || len(got[0].Samples) != 5 {
		t.Errorf("oversized batch: got %d batches", len(got))
	}

	// Degenerate size clamps to 1.
	if got := split.Batches(0); len(got) != 5 {
		t.Errorf("size 0: got %d batches, want 5", len(got))
	}
}
