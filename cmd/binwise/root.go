package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veldran/binwise/internal/config"
	"github.com/veldran/binwise/internal/logging"
	"github.com/veldran/binwise/internal/version"
)

var rootFlags struct {
	configPath string
	logLevel   string
}

// cfg is resolved once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "binwise",
	Short: "Histogram-binning confidence calibration for classifiers",
	Long: "Binwise fits a histogram-binning calibration table from a validation\n" +
		"split, evaluates it on a test split, and exports the learned\n" +
		"confidence-to-posterior mapping.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(rootFlags.configPath)
		if err != nil {
			return err
		}
		level := cfg.Runtime.LogLevel
		if rootFlags.logLevel != "" {
			level = rootFlags.logLevel
		}
		logging.Init(logging.ParseLevel(level))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", config.DefaultPath, "Path to TOML config file")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")

	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.Version = version.Version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
