package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/gamma"
	"github.com/sundown-sh/sundown/pkg/client"
)

// presets maps named warmth levels to Kelvin values
var presets = map[string]int{
	"day":    gamma.TemperatureDaylight,
	"sunset": gamma.TemperatureSunset,
	"night":  gamma.TemperatureNight,
	"candle": gamma.TemperatureCandle,
}

// NewSetCommand creates the set command
func NewSetCommand() *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "set [kelvin]",
		Short: "Override the current temperature until the next schedule tick",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kelvin int
			switch {
			case preset != "":
				if len(args) > 0 {
					return fmt.Errorf("specify either a kelvin value or --preset, not both")
				}
				k, ok := presets[preset]
				if !ok {
					return fmt.Errorf("unknown preset %q (valid: day, sunset, night, candle)", preset)
				}
				kelvin = k
			case len(args) == 1:
				k, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid kelvin value %q: %w", args[0], err)
				}
				kelvin = k
			default:
				return fmt.Errorf("specify a kelvin value or --preset")
			}

			if kelvin < config.MinTemperature || kelvin > config.MaxTemperature {
				return fmt.Errorf("kelvin %d out of range [%d, %d]",
					kelvin, config.MinTemperature, config.MaxTemperature)
			}

			c := cmd.Context().Value(ClientContextKey).(client.ClientInterface)
			if err := c.SetTemperature(kelvin); err != nil {
				return fmt.Errorf("failed to set temperature: %w", err)
			}

			pterm.Success.Printfln("Temperature set to %dK", kelvin)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "Named warmth level (day, sunset, night, candle)")
	return cmd
}
