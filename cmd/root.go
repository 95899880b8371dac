package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mj1618/focusorder/internal/config"
	"github.com/mj1618/focusorder/internal/output"
	"github.com/mj1618/focusorder/internal/version"
)

var (
	logger = zap.NewNop()
	cfg    = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "focusorder",
	Short: "Propose and curate keyboard focus order for UI frames",
	Long: `focusorder serializes a UI frame tree, derives a reading-order focus
sequence with heuristics, optionally asks a vision model for a better one,
and merges in the edits a designer has saved.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default $FOCUSORDER_CONFIG)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		if logger, err = newLogger(verbose); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		path, _ := rootCmd.PersistentFlags().GetString("config")
		if cfg, err = config.Load(path); err != nil {
			return err
		}
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}
