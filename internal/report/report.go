// Package report renders calibration diagnostics for humans: the evaluation
// summary, the per-bin table dump, and the mapping curve as CSV for external
// plotting tools.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/pipeline"
)

var (
	heading = color.New(color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

// PrintSummary writes a human-readable evaluation summary.
func PrintSummary(w io.Writer, s pipeline.Summary) {
	p := message.NewPrinter(language.English)

	heading.Fprintln(w, "calibration summary")
	p.Fprintf(w, "  examples            %d\n", s.Examples)
	fmt.Fprintf(w, "  raw accuracy        %.2f%%\n", s.RawAccuracy()*100)
	good.Fprintf(w, "  calibrated accuracy %.2f%%\n", s.CalibratedAccuracy()*100)
	p.Fprintf(w, "  argmax moved        %d\n", s.ArgmaxMoved)
	if s.Uncalibrated > 0 {
		warn.Fprintf(w, "  uncalibrated        %d (confidence outside validation coverage)\n", s.Uncalibrated)
	}
}

// PrintTable writes one line per bin: its confidence range, sample count,
// and empirical accuracy. Bins with no validation coverage print as
// undefined rather than pretending to a number.
func PrintTable(w io.Writer, t *calib.Table) {
	p := message.NewPrinter(language.English)

	n := t.NBins()
	heading.Fprintf(w, "calibration table (%d bins)\n", n)
	for i, b := range t.Bins() {
		lower := float64(i) / float64(n)
		upper := float64(i+1) / float64(n)
		if b.Defined() {
			p.Fprintf(w, "  (%.4f, %.4f]  n=%d  accuracy=%.4f\n", lower, upper, b.Count, b.Accuracy)
		} else {
			warn.Fprintf(w, "  (%.4f, %.4f]  undefined\n", lower, upper)
		}
	}
}

// WriteMappingCSV writes the confidence-to-posterior curve as a two-column
// CSV with a header row, sampled on a uniform grid.
func WriteMappingCSV(w io.Writer, t *calib.Table, points int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"confidence", "posterior"}); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for q, v := range t.Mapping(points) {
		rec := []string{
			strconv.FormatFloat(q, 'g', -1, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
