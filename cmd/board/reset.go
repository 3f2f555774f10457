package main

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore a board to the default catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.selectUser(cmd.Context()); err != nil {
			return err
		}
		if err := a.store.ResetToDefaults(cmd.Context()); err != nil {
			return err
		}
		return printBoard(cmd.OutOrStdout(), a.store.Snapshot(), false)
	},
}
