package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicklebow/bicklebow/backtest"
	"github.com/bicklebow/bicklebow/config"
	"github.com/bicklebow/bicklebow/portfolio"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay historical candles through the rule set",
	Long: `Simulate runs the configured threshold rules against historical candle
files and prints the resulting portfolio report.

Example:
  bicklebow simulate -f simulation.yaml`,
	RunE: runSimulate,
}

var simulateConfigPath string

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	simulateCmd.MarkFlagRequired("config")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(simulateConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()

	rules, err := cfg.RuleSet()
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	history, err := backtest.LoadDir(cfg.Simulation.CandleDir)
	if err != nil {
		// Bad candle files taint only their own instrument; the replay
		// proceeds with the rest.
		logger.Warn().Err(err).Msg("some candle files were skipped")
	}
	if history.Len() == 0 {
		return fmt.Errorf("no candles found in %s", cfg.Simulation.CandleDir)
	}

	opts := cfg.Options()
	opts.Logger = &logger
	step, _ := cfg.Simulation.ParseStep()

	runner := backtest.Runner{
		Portfolio: portfolio.New(rules, opts),
		History:   history,
		Start:     cfg.Simulation.Start,
		End:       cfg.Simulation.End,
		Step:      step,
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	fmt.Printf("Replayed %d candles over %d steps (%s .. %s)\n\n",
		res.Candles, res.Steps, res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
	fmt.Println(res.Summary)
	return nil
}
