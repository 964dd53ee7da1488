package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/report"
)

var mappingFlags struct {
	tablePath string
	outPath   string
	points    int
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Export the confidence-to-posterior curve as CSV",
	Long: `Sample the fitted table's mapping on a uniform confidence grid and write
it as two-column CSV, for plotting reliability diagrams. Confidences in
bins with no validation coverage map to themselves.`,
	Args: cobra.NoArgs,
	RunE: runMapping,
}

func init() {
	f := mappingCmd.Flags()
	f.StringVar(&mappingFlags.tablePath, "table", "", "Calibration table path (default from config)")
	f.StringVarP(&mappingFlags.outPath, "out", "o", "", "Output CSV path (default stdout)")
	f.IntVar(&mappingFlags.points, "points", calib.DefaultMappingPoints, "Number of grid points")
}

func runMapping(cmd *cobra.Command, args []string) error {
	tablePath := cfg.TablePath
	if mappingFlags.tablePath != "" {
		tablePath = mappingFlags.tablePath
	}

	table, err := calib.Load(tablePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mappingFlags.outPath != "" {
		f, err := os.Create(mappingFlags.outPath)
		if err != nil {
			return fmt.Errorf("mapping: %w", err)
		}
		defer f.Close()
		out = f
	}
	return report.WriteMappingCSV(out, table, mappingFlags.points)
}
