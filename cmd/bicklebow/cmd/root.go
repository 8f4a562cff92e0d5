package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bicklebow",
	Short: "A rule-driven portfolio simulator and price-trigger alerting service",
	Long: `Bicklebow replays historical candles through configurable threshold rules
to simulate long-term investing strategies, and evaluates user-defined
price triggers against live portfolio positions to deliver alerts.

It provides tools for:
  - Backtesting threshold rule sets against historical candle files
  - Scheduling recurring capital deposits in simulations
  - Managing per-user price triggers with cool-down deduplication
  - Delivering alerts over telegram`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; deployments export variables directly.
		_ = godotenv.Load()
	},
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level diagnostics")
}

// newLogger builds the diagnostics sink shared by the subcommands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
