package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sundown-sh/sundown/pkg/client"
)

// orderedStatusKeys defines the order of fields in parseable output
var orderedStatusKeys = []string{
	"running",
	"kelvin",
	"day_temp",
	"night_temp",
	"sun_relative",
	"latitude",
	"longitude",
	"timezone",
	"sunrise",
	"sunset",
	"update_interval",
	"transition",
}

// formatStatusParseable formats status fields in a consistent key=value order
func formatStatusParseable(status map[string]any) string {
	var parts []string
	for _, key := range orderedStatusKeys {
		if val, ok := status[key]; ok {
			switch v := val.(type) {
			case string:
				parts = append(parts, fmt.Sprintf("%s=%q", key, v))
			default:
				parts = append(parts, fmt.Sprintf("%s=%v", key, v))
			}
		}
	}
	// Any remaining fields, sorted for stable output
	var extra []string
	for key := range status {
		if key == "status" {
			continue
		}
		known := false
		for _, k := range orderedStatusKeys {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		parts = append(parts, fmt.Sprintf("%s=%v", key, status[key]))
	}
	return strings.Join(parts, " ")
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the scheduler state and current temperature",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.ClientInterface)
			status, err := c.GetStatus()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			if parseable {
				fmt.Println(formatStatusParseable(status))
				return nil
			}

			schedule := "fixed clock"
			if status["sun_relative"] == true {
				schedule = "sun-relative"
			}

			table := pterm.TableData{
				[]string{pterm.Bold.Sprint("Running"), fmt.Sprintf("%v", status["running"])},
				[]string{"Schedule", schedule},
			}
			if kelvin, ok := status["kelvin"]; ok {
				table = append(table, []string{"Current", fmt.Sprintf("%vK", kelvin)})
			}
			table = append(table,
				[]string{"Day", fmt.Sprintf("%vK", status["day_temp"])},
				[]string{"Night", fmt.Sprintf("%vK", status["night_temp"])},
				[]string{"Interval", fmt.Sprintf("%v", status["update_interval"])},
				[]string{"Transition", fmt.Sprintf("%v", status["transition"])},
			)
			if lat, ok := status["latitude"]; ok {
				table = append(table, []string{"Position", fmt.Sprintf("%v, %v", lat, status["longitude"])})
			}
			if tz, ok := status["timezone"]; ok {
				table = append(table, []string{"Timezone", fmt.Sprintf("%v", tz)})
			}
			if sunrise, ok := status["sunrise"]; ok {
				table = append(table, []string{"Sunrise", fmt.Sprintf("%v", sunrise)})
				table = append(table, []string{"Sunset", fmt.Sprintf("%v", status["sunset"])})
			}

			pterm.DefaultTable.WithData(table).Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
