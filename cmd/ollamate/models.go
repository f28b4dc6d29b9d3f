package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ollamate/core/backend"
	"github.com/ollamate/core/chat"
	"github.com/ollamate/core/models"
	"github.com/ollamate/core/store"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the model list and selection",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		state, _, err := newModelState()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		available := state.Available(ctx)
		if len(available) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No models. Use `ollamate models add` or `ollamate models import`.")
			return nil
		}

		selected, _ := state.Selected(ctx)
		for _, name := range available {
			marker := "  "
			if name == selected {
				marker = "* "
			}
			fmt.Fprintln(cmd.OutOrStdout(), marker+name)
		}
		return nil
	},
}

var modelsSelectCmd = &cobra.Command{
	Use:   "select [model]",
	Short: "Select the model used for new turns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _, err := newModelState()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if len(args) == 1 {
			return selectByName(ctx, state, args[0])
		}

		manager := models.NewManager(state, newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		chosen, err := manager.Select(ctx)
		if errors.Is(err, models.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", chosen)
		return nil
	},
}

var modelsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a model name to the list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		state, _, err := newModelState()
		if err != nil {
			return err
		}

		manager := models.NewManager(state, newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		name, err := manager.Add(cmd.Context())
		if errors.Is(err, models.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", name)
		return nil
	},
}

var modelsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a model from the list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		state, _, err := newModelState()
		if err != nil {
			return err
		}

		manager := models.NewManager(state, newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		name, err := manager.Remove(cmd.Context())
		if errors.Is(err, models.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
		return nil
	},
}

var modelsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import installed models from the Ollama server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		state, cfg, err := newModelState()
		if err != nil {
			return err
		}

		client := backend.NewClient(&cfg.Backend, newLogger())
		manager := models.NewManager(state, newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))

		count, err := manager.Import(cmd.Context(), client)
		if errors.Is(err, models.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing new to import.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d model(s)\n", count)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsSelectCmd, modelsAddCmd, modelsRemoveCmd, modelsImportCmd)
	rootCmd.AddCommand(modelsCmd)
}

func newModelState() (*models.StateStore, *chat.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	kv, err := store.New(&cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return models.NewStateStore(kv, newLogger()), cfg, nil
}

func selectByName(ctx context.Context, state *models.StateStore, name string) error {
	for _, available := range state.Available(ctx) {
		if available == name {
			return state.SetSelected(ctx, name)
		}
	}
	return fmt.Errorf("model %q is not in the list (see `ollamate models list`)", name)
}
