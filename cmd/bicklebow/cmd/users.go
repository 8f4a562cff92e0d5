package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicklebow/bicklebow/alert"
	"github.com/bicklebow/bicklebow/config"
	"github.com/bicklebow/bicklebow/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user",
	Long: `Register a user who owns triggers and receives alerts.

Example:
  bicklebow users add -f bicklebow.yaml -u alice --chat-id 123456789`,
	RunE: runUsersAdd,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE:  runUsersList,
}

var (
	usersConfigPath string
	usersUsername   string
	usersChatID     string
)

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)

	usersCmd.PersistentFlags().StringVarP(&usersConfigPath, "config", "f", "", "path to config file (required)")
	usersCmd.MarkPersistentFlagRequired("config")

	usersAddCmd.Flags().StringVarP(&usersUsername, "user", "u", "", "username (required)")
	usersAddCmd.Flags().StringVar(&usersChatID, "chat-id", "", "telegram chat id (required)")
	usersAddCmd.MarkFlagRequired("user")
	usersAddCmd.MarkFlagRequired("chat-id")
}

func openUsersStore() (*store.SQLite, error) {
	cfg, err := config.LoadFromFile(usersConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	db, err := openUsersStore()
	if err != nil {
		return err
	}
	defer db.Close()

	u := alert.User{Username: usersUsername, ChatID: usersChatID}
	if err := db.CreateUser(context.Background(), &u); err != nil {
		return err
	}
	fmt.Printf("Registered user %s (id %d)\n", u.Username, u.ID)
	return nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	db, err := openUsersStore()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := db.Users(context.Background())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users")
		return nil
	}
	for _, u := range users {
		fmt.Printf("%d  %-16s chat=%s\n", u.ID, u.Username, u.ChatID)
	}
	return nil
}
