// Command ollamate is a terminal chat client for local Ollama models with
// persistent, resumable session history.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ollamate/core/chat"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ollamate",
	Short: "Chat with local Ollama models",
	Long: `Chat with local Ollama models from the terminal.

Conversations are saved as sessions that can be listed, resumed,
exported, and deleted. The selected model is remembered across runs;
changing it mid-conversation archives the current session and starts
a fresh one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "state directory (default ~/.ollamate)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*chat.Config, error) {
	var cfg *chat.Config
	if configFile != "" {
		loaded, err := chat.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := chat.DefaultConfig()
		cfg = &defaults
	}

	if dataDir != "" {
		cfg.Store.Path = dataDir
	}
	if cfg.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Store.Path = filepath.Join(home, ".ollamate")
	}
	return cfg, nil
}

func newCoordinator() (*chat.Coordinator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return chat.New(cfg, chat.WithLogger(newLogger()))
}
