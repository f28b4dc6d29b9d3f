package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ollamate/core/chat"
	"github.com/ollamate/core/models"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the selected model.

In-session commands:
  /model     pick a different model (archives the current conversation)
  /new       archive the current conversation and start a fresh one
  /quit      save and exit (Ctrl-D works too)`,
	RunE: runChat,
}

var resumeID string

func init() {
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "resume a saved session by id")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	coordinator, err := newCoordinator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	term := newTerminalSurface(cmd.OutOrStdout())
	surfaceID := coordinator.Broadcaster().Attach(term)
	defer coordinator.Broadcaster().Detach(surfaceID)

	if resumeID != "" {
		if err := coordinator.Handle(ctx, chat.LoadSession{ID: resumeID}); err != nil {
			return err
		}
	} else if err := coordinator.Handle(ctx, chat.StartSession{}); err != nil {
		return err
	}

	manager := models.NewManager(coordinator.Models(), newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "you: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return coordinator.Close(ctx)
		case "/new":
			if err := coordinator.Handle(ctx, chat.StartSession{}); err != nil {
				printError(cmd.OutOrStdout(), err.Error())
			}
			continue
		case "/model":
			if _, err := manager.Select(ctx); err != nil && !errors.Is(err, models.ErrCancelled) {
				printError(cmd.OutOrStdout(), err.Error())
			}
			continue
		}

		err := coordinator.Handle(ctx, chat.SubmitTurn{Text: line})
		switch {
		case errors.Is(err, chat.ErrNoModelSelected):
			printError(cmd.OutOrStdout(), "No model selected. Use /model or `ollamate models select`.")
		case err != nil:
			printError(cmd.OutOrStdout(), err.Error())
		}

		if ctx.Err() != nil {
			break
		}
	}

	return coordinator.Close(ctx)
}
