package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.selectUser(cmd.Context()); err != nil {
			a.logger.Warn("Board load failed, showing fallback board", zap.Error(err))
		}
		return printBoard(cmd.OutOrStdout(), a.store.Snapshot(), showJSON)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the board as JSON")
}

func printBoard(w io.Writer, snap board.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(handler.BoardResponse(snap))
	}

	owner := snap.UserID
	if owner == "" {
		owner = "guest"
	}
	fmt.Fprintf(w, "board of %s (%s, %s)\n", owner, snap.Backend, snap.Status)
	if snap.Err != nil {
		fmt.Fprintf(w, "  last error: %v\n", snap.Err)
	}
	for _, c := range snap.Hierarchy {
		fmt.Fprintf(w, "%s %s [%s]\n", c.Icon, c.Label, c.Key)
		for _, it := range c.Items {
			fmt.Fprintf(w, "    %s %s [%s]\n", it.Icon, c.Phrase(it), it.Key)
		}
	}
	return nil
}
