package dataset

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// readSamples reads a safetensors file containing a single "samples" tensor
// of dtype F32 and shape [n, d...], returning one flat tensor per example
// plus the per-sample dims.
func readSamples(path string) ([][]float32, []int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: %w", err)
	}
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("dataset: %s too small: %d bytes", path, len(data))
	}

	// Parse safetensors header: 8-byte LE uint64 header length, then JSON.
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data)) < 8+headerLen {
		return nil, nil, fmt.Errorf("dataset: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, nil, fmt.Errorf("dataset: failed to parse header: %w", err)
	}

	raw, ok := header["samples"]
	if !ok {
		return nil, nil, fmt.Errorf("dataset: tensor 'samples' not found in header")
	}

	var meta struct {
		Dtype       string `json:"dtype"`
		Shape       []int  `json:"shape"`
		DataOffsets [2]int `json:"data_offsets"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, nil, fmt.Errorf("dataset: failed to parse tensor metadata: %w", err)
	}

	if meta.Dtype != "F32" {
		return nil, nil, fmt.Errorf("dataset: expected dtype F32, got %s", meta.Dtype)
	}
	if len(meta.Shape) < 2 {
		return nil, nil, fmt.Errorf("dataset: expected shape [n, d...], got %v", meta.Shape)
	}

	n := meta.Shape[0]
	if n < 0 {
		return nil, nil, fmt.Errorf("dataset: invalid dimension in shape %v", meta.Shape)
	}
	sampleSize := 1
	shape := make([]int64, 0, len(meta.Shape)-1)
	for _, d := range meta.Shape[1:] {
		if d <= 0 {
			return nil, nil, fmt.Errorf("dataset: invalid dimension in shape %v", meta.Shape)
		}
		sampleSize *= d
		shape = append(shape, int64(d))
	}

	if meta.DataOffsets[0] < 0 || meta.DataOffsets[1] < meta.DataOffsets[0] {
		return nil, nil, fmt.Errorf("dataset: invalid data offsets %v", meta.DataOffsets)
	}

	numFloats := n * sampleSize
	expectedBytes := numFloats * 4
	dataStart := int(8+headerLen) + meta.DataOffsets[0]
	dataEnd := int(8+headerLen) + meta.DataOffsets[1]
	if dataEnd-dataStart != expectedBytes {
		return nil, nil, fmt.Errorf("dataset: data size %d doesn't match shape %v",
			dataEnd-dataStart, meta.Shape)
	}
	if dataEnd > len(data) {
		return nil, nil, fmt.Errorf("dataset: data range [%d:%d] exceeds file size %d",
			dataStart, dataEnd, len(data))
	}

	// Reinterpret raw bytes as per-sample float32 slices.
	samples := make([][]float32, n)
	off := dataStart
	for i := range samples {
		sample := make([]float32, sampleSize)
		for j := range sample {
			bits := binary.LittleEndian.Uint32(data[off : off+4])
			sample[j] = math.Float32frombits(bits)
			off += 4
		}
		samples[i] = sample
	}
	return samples, shape, nil
}
