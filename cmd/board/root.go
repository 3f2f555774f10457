package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "board",
	Short: "SpeakEasy board service",
	Long: `board serves the SpeakEasy vocabulary board over HTTP and performs
maintenance on stored boards.

Configuration comes from the environment (and a .env file when present).
Without POSTGRES_HOST the service runs in guest-only mode. Run "board migrate"
once against a new database before serving signed-in users.

Examples:
  # Serve the API
  board serve

  # Print the board of a signed-in user
  board show --user 7f9c...

  # Restore a user's board to the default catalog
  board reset --user 7f9c...`,
	SilenceUsage: true,
}

var (
	userID  string
	envFile string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User handle; empty selects the guest board")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment is read")

	rootCmd.AddCommand(serveCmd, showCmd, resetCmd, migrateCmd)
}
