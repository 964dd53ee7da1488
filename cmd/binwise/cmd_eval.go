package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/dataset"
	"github.com/veldran/binwise/internal/pipeline"
	"github.com/veldran/binwise/internal/report"
	"github.com/veldran/binwise/internal/scorer"
)

var evalFlags struct {
	modelPath string
	tablePath string
}

var evalCmd = &cobra.Command{
	Use:   "eval <split-dir>",
	Short: "Evaluate a fitted table on a test split",
	Long: `Score the test split, calibrate every example against the saved table,
and report raw versus calibrated top-1 accuracy.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.StringVar(&evalFlags.modelPath, "model", "", "ONNX model path (default from config)")
	f.StringVar(&evalFlags.tablePath, "table", "", "Calibration table path (default from config)")
}

func runEval(cmd *cobra.Command, args []string) error {
	modelPath := cfg.ModelPath
	if evalFlags.modelPath != "" {
		modelPath = evalFlags.modelPath
	}
	tablePath := cfg.TablePath
	if evalFlags.tablePath != "" {
		tablePath = evalFlags.tablePath
	}

	table, err := calib.Load(tablePath)
	if err != nil {
		return err
	}

	split, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	slog.Info("loaded test split", "examples", split.Len(), "dir", args[0])

	sc, err := scorer.New(modelPath)
	if err != nil {
		return err
	}
	defer sc.Close()

	p := pipeline.New(sc, table.NBins(), cfg.Runtime.BatchSize, cfg.Runtime.Workers)
	summary, err := p.Evaluate(cmd.Context(), table, split)
	if err != nil {
		return err
	}

	report.PrintSummary(cmd.OutOrStdout(), summary)
	return nil
}
