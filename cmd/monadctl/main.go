// Command monadctl is Monad's minimal interactive CLI consumer: it wires
// every core component — persistence, an LLMProvider, the tool router, the
// prompt assembler, the chat engine, and telemetry — into one process and
// drives chatStream's event stream end to end from a terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var configPath string

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "monadctl",
		Short: "Monad - a local-first conversational assistant runtime",
		Long: `monadctl drives Monad's chat engine from a terminal.

It reads monad.yaml (or MONAD_CONFIG) for provider credentials and runtime
tuning, then exposes the same chatStream event loop a graphical client or
autonomous job would consume.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("MONAD_CONFIG"), "Path to YAML configuration file")

	root.AddCommand(buildChatCmd(), buildJobCmd(), buildConfigCmd())
	return root
}
