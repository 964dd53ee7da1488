package calib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the payload format changes so stale tables are rejected.
const storeSchemaVersion uint16 = 1

// storePayload is the on-disk form of a fitted table. Accuracies and counts
// are stored as parallel slices; a count of zero marks an undefined bin.
type storePayload struct {
	Schema     uint16
	Accuracies []float64
	Counts     []int
}

// Save writes a fitted table to path. The write is atomic: the payload goes
// to a temp file in the same directory and is renamed into place, so readers
// never observe a partial table.
func Save(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("calib: save table: %w", err)
	}

	payload := storePayload{
		Schema:     storeSchemaVersion,
		Accuracies: make([]float64, len(t.bins)),
		Counts:     make([]int, len(t.bins)),
	}
	for i, b := range t.bins {
		payload.Accuracies[i] = b.Accuracy
		payload.Counts[i] = b.Count
	}

	f, err := os.CreateTemp(filepath.Dir(path), "table-*")
	if err != nil {
		return fmt.Errorf("calib: save table: %w", err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return fmt.Errorf("calib: encode table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("calib: save table: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("calib: save table: %w", err)
	}
	return nil
}

// Load reads a table previously written by Save, rejecting unknown schema
// versions and structurally invalid payloads.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calib: load table: %w", err)
	}
	defer f.Close()

	var payload storePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("calib: decode table: %w", err)
	}
	if payload.Schema != storeSchemaVersion {
		return nil, fmt.Errorf("calib: table schema %d, want %d", payload.Schema, storeSchemaVersion)
	}
	if len(payload.Accuracies) != len(payload.Counts) {
		return nil, fmt.Errorf("calib: corrupt table: %d accuracies, %d counts",
			len(payload.Accuracies), len(payload.Counts))
	}
	if len(payload.Accuracies) == 0 {
		return nil, fmt.Errorf("calib: corrupt table: no bins")
	}

	bins := make([]Bin, len(payload.Accuracies))
	for i := range bins {
		if payload.Counts[i] < 0 {
			return nil, fmt.Errorf("calib: corrupt table: negative count in bin %d", i)
		}
		if payload.Counts[i] > 0 && (payload.Accuracies[i] < 0 || payload.Accuracies[i] > 1) {
			return nil, fmt.Errorf("calib: corrupt table: accuracy %v in bin %d outside [0,1]",
				payload.Accuracies[i], i)
		}
		bins[i] = Bin{Accuracy: payload.Accuracies[i], Count: payload.Counts[i]}
	}
	return &Table{bins: bins}, nil
}
