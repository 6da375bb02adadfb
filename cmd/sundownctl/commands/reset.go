package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sundown-sh/sundown/internal/gamma"
	"github.com/sundown-sh/sundown/pkg/client"
)

// NewResetCommand creates the reset command
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the neutral daylight temperature",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.ClientInterface)
			if err := c.Reset(); err != nil {
				return fmt.Errorf("failed to reset temperature: %w", err)
			}
			pterm.Success.Printfln("Temperature reset to %dK", gamma.TemperatureDaylight)
			return nil
		},
	}
}
