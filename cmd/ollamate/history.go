package main

import (
	"fmt"
	"time"

	"github.com/ollamate/core/history"
	"github.com/ollamate/core/history/export"
	"github.com/ollamate/core/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved chat sessions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHistoryStore()
		if err != nil {
			return err
		}

		sessions, err := h.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
			return nil
		}

		for _, s := range sessions {
			when := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  (%s, %d turns)\n",
				s.ID, when, s.Name, s.ModelUsed, len(s.Messages))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHistoryStore()
		if err != nil {
			return err
		}

		sess, err := h.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		term := newTerminalSurface(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n", sess.Name, sess.ModelUsed)
		for _, turn := range sess.Messages {
			term.renderTurn(turn)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHistoryStore()
		if err != nil {
			return err
		}

		deleted, err := h.DeleteByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: %s", history.ErrNotFound, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write a saved session to stdout in a portable format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHistoryStore()
		if err != nil {
			return err
		}

		sess, err := h.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		exporter, err := export.New(exportFormat)
		if err != nil {
			return err
		}
		return exporter.Export(&sess, cmd.OutOrStdout())
	},
}

func init() {
	historyExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format (json, yaml)")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func newHistoryStore() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	kv, err := store.New(&cfg.Store)
	if err != nil {
		return nil, err
	}
	return history.NewStore(kv, &cfg.History, newLogger()), nil
}
