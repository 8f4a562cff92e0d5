package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bicklebow/bicklebow/alert"
	"github.com/bicklebow/bicklebow/config"
	"github.com/bicklebow/bicklebow/store"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Manage price triggers",
	Long: `Create, list and delete per-user price triggers.

A trigger fires when a position's price moves past a threshold relative to
a reference: the portfolio average price, or the daily/weekly/monthly
candle price.

Examples:
  bicklebow triggers add -f bicklebow.yaml -u alice --reference PORTFOLIO --direction INCREASE --threshold 5
  bicklebow triggers add -f bicklebow.yaml -u alice --instrument TSLA --reference CANDLE_1D --direction DECREASE --threshold 3
  bicklebow triggers list -f bicklebow.yaml -u alice
  bicklebow triggers rm -f bicklebow.yaml 01J8...`,
}

var triggersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's triggers",
	RunE:  runTriggersList,
}

var triggersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a trigger",
	RunE:  runTriggersAdd,
}

var triggersRmCmd = &cobra.Command{
	Use:   "rm <trigger-id>",
	Short: "Delete a trigger",
	Args:  cobra.ExactArgs(1),
	RunE:  runTriggersRm,
}

var (
	triggersConfigPath string
	triggersUser       string
	triggersInstrument string
	triggersReference  string
	triggersDirection  string
	triggersThreshold  float64
)

func init() {
	rootCmd.AddCommand(triggersCmd)
	triggersCmd.AddCommand(triggersListCmd)
	triggersCmd.AddCommand(triggersAddCmd)
	triggersCmd.AddCommand(triggersRmCmd)

	triggersCmd.PersistentFlags().StringVarP(&triggersConfigPath, "config", "f", "", "path to config file (required)")
	triggersCmd.MarkPersistentFlagRequired("config")

	triggersListCmd.Flags().StringVarP(&triggersUser, "user", "u", "", "username (required)")
	triggersListCmd.MarkFlagRequired("user")

	triggersAddCmd.Flags().StringVarP(&triggersUser, "user", "u", "", "username (required)")
	triggersAddCmd.Flags().StringVarP(&triggersInstrument, "instrument", "i", "", "instrument filter (empty = any holding)")
	triggersAddCmd.Flags().StringVar(&triggersReference, "reference", string(alert.ReferencePortfolio),
		"reference price: PORTFOLIO, CANDLE_1D, CANDLE_1W or CANDLE_1M")
	triggersAddCmd.Flags().StringVar(&triggersDirection, "direction", string(alert.DirectionIncrease),
		"direction: INCREASE or DECREASE")
	triggersAddCmd.Flags().Float64Var(&triggersThreshold, "threshold", 5, "percent threshold")
	triggersAddCmd.MarkFlagRequired("user")
}

func openStore() (*store.SQLite, error) {
	cfg, err := config.LoadFromFile(triggersConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func runTriggersList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	u, err := db.UserByUsername(ctx, triggersUser)
	if err != nil {
		return err
	}
	triggers, err := db.TriggersByUser(ctx, u.ID)
	if err != nil {
		return err
	}

	if len(triggers) == 0 {
		fmt.Println("No triggers")
		return nil
	}
	for _, t := range triggers {
		instrument := t.Instrument
		if instrument == "" {
			instrument = "any"
		}
		fmt.Printf("%s  %-12s %s\n", t.ID, instrument, t.Description())
	}
	return nil
}

func runTriggersAdd(cmd *cobra.Command, args []string) error {
	reference, err := alert.ParseReference(triggersReference)
	if err != nil {
		return err
	}
	direction, err := alert.ParseDirection(triggersDirection)
	if err != nil {
		return err
	}
	if triggersThreshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", triggersThreshold)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	u, err := db.UserByUsername(ctx, triggersUser)
	if err != nil {
		return err
	}

	t := alert.Trigger{
		UserID:     u.ID,
		Instrument: triggersInstrument,
		Reference:  reference,
		Direction:  direction,
		Threshold:  triggersThreshold,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.CreateTrigger(ctx, &t); err != nil {
		return err
	}
	fmt.Printf("Created trigger %s: %s\n", t.ID, t.Description())
	return nil
}

func runTriggersRm(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteTrigger(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted trigger %s\n", args[0])
	return nil
}
