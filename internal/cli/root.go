// Package cli defines the aichat command tree: serve (the default), render
// and migrate.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"aichat/internal/config"
)

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command. Running it without a subcommand
// starts the server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aichat",
		Short:         "aichat: chat with an LLM, replies rendered from Markdown",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCmd()
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve)
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// setupLogger installs the default slog logger: text in development, JSON
// everywhere else.
func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
