package main

import (
	"github.com/spf13/cobra"

	"github.com/veldran/binwise/internal/calib"
	"github.com/veldran/binwise/internal/report"
)

var inspectFlags struct {
	tablePath string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a saved calibration table",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFlags.tablePath, "table", "", "Calibration table path (default from config)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	tablePath := cfg.TablePath
	if inspectFlags.tablePath != "" {
		tablePath = inspectFlags.tablePath
	}

	table, err := calib.Load(tablePath)
	if err != nil {
		return err
	}
	report.PrintTable(cmd.OutOrStdout(), table)
	return nil
}
