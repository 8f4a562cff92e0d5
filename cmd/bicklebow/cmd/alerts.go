package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicklebow/bicklebow/alert"
	"github.com/bicklebow/bicklebow/config"
	"github.com/bicklebow/bicklebow/notify"
	"github.com/bicklebow/bicklebow/store"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate triggers and inspect alert history",
}

var alertsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one trigger evaluation cycle",
	Long: `Evaluate every user's triggers against their current portfolio
positions and deliver alerts that are not suppressed by a cool-down.

Positions are read from a JSON snapshot export:
  [{"user_id": 1, "positions": [{"name": "Tesla", "ticker": "TSLA",
    "current_price": 1000, "portfolio_price": 900,
    "candle_prices": {"CANDLE_1D": 990, "CANDLE_1W": 950, "CANDLE_1M": 900}}]}]

Example:
  bicklebow alerts run -f bicklebow.yaml --snapshots positions.json`,
	RunE: runAlertsRun,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show a user's most recent alerts",
	RunE:  runAlertsList,
}

var (
	alertsConfigPath string
	alertsSnapshots  string
	alertsUser       string
	alertsDryRun     bool
)

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsRunCmd)
	alertsCmd.AddCommand(alertsListCmd)

	alertsCmd.PersistentFlags().StringVarP(&alertsConfigPath, "config", "f", "", "path to config file (required)")
	alertsCmd.MarkPersistentFlagRequired("config")

	alertsRunCmd.Flags().StringVar(&alertsSnapshots, "snapshots", "", "path to position snapshots JSON (required)")
	alertsRunCmd.Flags().StringVarP(&alertsUser, "user", "u", "", "evaluate a single user by username")
	alertsRunCmd.Flags().BoolVar(&alertsDryRun, "dry-run", false, "log alerts instead of sending them")
	alertsRunCmd.MarkFlagRequired("snapshots")

	alertsListCmd.Flags().StringVarP(&alertsUser, "user", "u", "", "username (required)")
	alertsListCmd.MarkFlagRequired("user")
}

func runAlertsRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(alertsConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()

	db, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	source, err := alert.NewFileSource(alertsSnapshots)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.Logger{Log: logger}
	if token := cfg.Telegram.Token(); token != "" && !alertsDryRun {
		notifier, err = notify.NewTelegram(token)
		if err != nil {
			return err
		}
	}

	monitor := alert.NewMonitor(db, source, notifier, logger)
	ctx := context.Background()

	if alertsUser != "" {
		u, err := db.UserByUsername(ctx, alertsUser)
		if err != nil {
			return err
		}
		return monitor.RunUser(ctx, u)
	}
	return monitor.Run(ctx)
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(alertsConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	u, err := db.UserByUsername(ctx, alertsUser)
	if err != nil {
		return err
	}
	alerts, err := db.AlertsByUser(ctx, u.ID, 10)
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		fmt.Println("No alerts yet")
		return nil
	}
	for _, a := range alerts {
		fmt.Printf("%s  trigger=%s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.TriggerID)
	}
	return nil
}
