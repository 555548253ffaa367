package cmd

import (
	"encoding/json"
	"fmt"

	"slashroute/internal/discord"
	"slashroute/pkg/slash"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDescriptorCommand(load func() (*slash.Tree, error)) *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "descriptor",
		Short: "Print the registration payload of the command tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := load()
			if err != nil {
				return fmt.Errorf("load commands: %w", err)
			}
			payload := discord.ApplicationCommands(tree.Descriptors())
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "yaml":
				// Round-trip through JSON so YAML keys match the wire names.
				raw, err := json.Marshal(payload)
				if err != nil {
					return err
				}
				var generic any
				if err := yaml.Unmarshal(raw, &generic); err != nil {
					return err
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(generic)
			}
			return fmt.Errorf("unknown format %q, want json or yaml", format)
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return c
}
