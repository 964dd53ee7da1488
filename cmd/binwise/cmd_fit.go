package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/dataset"
	"github.com/veldran/binwise/internal/pipeline"
	"github.com/veldran/binwise/internal/report"
	"github.com/veldran/binwise/internal/scorer"
)

var fitFlags struct {
	modelPath string
	tablePath string
	bins      int
}

var fitCmd = &cobra.Command{
	Use:   "fit <split-dir>",
	Short: "Fit a calibration table from a validation split",
	Long: `Score the validation split with the configured ONNX classifier, bin the
top-1 confidences, and save the resulting calibration table.

The split directory must contain samples.safetensors and labels.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func init() {
	f := fitCmd.Flags()
	f.StringVar(&fitFlags.modelPath, "model", "", "ONNX model path (default from config)")
	f.StringVarP(&fitFlags.tablePath, "out", "o", "", "Output table path (default from config)")
	f.IntVar(&fitFlags.bins, "bins", 0, "Number of confidence bins (default from config)")
}

func runFit(cmd *cobra.Command, args []string) error {
	modelPath := cfg.ModelPath
	if fitFlags.modelPath != "" {
		modelPath = fitFlags.modelPath
	}
	tablePath := cfg.TablePath
	if fitFlags.tablePath != "" {
		tablePath = fitFlags.tablePath
	}
	bins := cfg.Calibration.Bins
	if fitFlags.bins > 0 {
		bins = fitFlags.bins
	}

	split, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	slog.Info("loaded validation split", "examples", split.Len(), "dir", args[0])

	sc, err := scorer.New(modelPath)
	if err != nil {
		return err
	}
	defer sc.Close()

	p := pipeline.New(sc, bins, cfg.Runtime.BatchSize, cfg.Runtime.Workers)
	table, err := p.Fit(cmd.Context(), split)
	if err != nil {
		return err
	}

	if err := calib.Save(tablePath, table); err != nil {
		return err
	}
	slog.Info("saved calibration table", "path", tablePath, "bins", bins)

	report.PrintTable(cmd.OutOrStdout(), table)
	fmt.Fprintf(cmd.OutOrStdout(), "\nTable written to: %s\n", tablePath)
	return nil
}
