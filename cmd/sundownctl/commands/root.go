package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/utils"
	"github.com/sundown-sh/sundown/pkg/client"
)

// Define a custom type for context keys to avoid collisions
type loggerContextKey struct{}

// newClient builds the socket client once flags are parsed; tests swap it
// out to observe the socket path or inject a mock.
var newClient = func(logger *slog.Logger, socket string) client.ClientInterface {
	return client.New(logger, socket)
}

// NewRootCommand creates the root command. Flag defaults come from the
// loaded configuration; the logger and client are constructed in
// PersistentPreRunE, after cobra has parsed the command line, so the
// --socket, --log-level and --log-format overrides take effect.
func NewRootCommand(cfg *config.Config, version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sundownctl",
		Short: "Control the sundownd display temperature daemon",
	}

	// Add global flags
	cmd.PersistentFlags().String("socket", cfg.Server.UnixSocket, "Path to sundownd socket")
	cmd.PersistentFlags().String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", cfg.Logging.Format, "Log format (text, json)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logger := utils.SetupLogger(level, format)
		utils.SetAsDefaultLogger(logger)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = context.WithValue(ctx, loggerContextKey{}, logger)

		// A client already present in the context (injected by tests)
		// wins over flag-based construction.
		if _, ok := ctx.Value(ClientContextKey).(client.ClientInterface); !ok {
			socket, _ := cmd.Flags().GetString("socket")
			ctx = context.WithValue(ctx, ClientContextKey, newClient(logger, socket))
		}
		cmd.SetContext(ctx)
		return nil
	}

	// Add commands
	cmd.AddCommand(newVersionCommand(version, commit, buildDate))
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewSetCommand())
	cmd.AddCommand(NewResetCommand())

	return cmd
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Client:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)

			// Try to query the daemon for its version
			if c, ok := cmd.Context().Value(ClientContextKey).(client.ClientInterface); ok {
				v, err := c.GetVersion()
				if err == nil {
					fmt.Printf("\nDaemon:\n")
					fmt.Printf("  Version:    %s\n", v)
				} else {
					fmt.Printf("\nDaemon: not reachable\n")
				}
			}
		},
	}
}
