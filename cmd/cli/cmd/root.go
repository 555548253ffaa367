// Package cmd is the offline tooling CLI: it compiles command trees, validates
// schema files and dry-runs interaction payloads through the router without a
// Discord connection.
package cmd

import (
	"context"

	_ "slashroute/internal/command/help"
	_ "slashroute/internal/command/manage"
	_ "slashroute/internal/command/ping"
	_ "slashroute/internal/command/roll"

	"slashroute/internal/command"
	"slashroute/internal/schemafile"
	"slashroute/pkg/slash"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the CLI.
func NewRootCommand() *cobra.Command {
	var schemaPath string
	root := &cobra.Command{
		Use:   "slashroute",
		Short: "Inspect and exercise slash command trees",
		Long: `slashroute works on the bot's built-in commands, or on a command tree
declared in a YAML or TOML schema file when --schema is given.

  descriptor  print the registration payload
  route       route an interaction payload without running handlers
  check       validate a schema file
  readme      regenerate the command reference`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "schema file to use instead of the built-in commands")

	load := func() (*slash.Tree, error) { return loadTree(schemaPath) }
	root.AddCommand(
		newDescriptorCommand(load),
		newRouteCommand(load),
		newCheckCommand(),
		newReadmeCommand(),
		newVersionCommand(),
	)
	return root
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// loadTree builds the built-in tree, or the file's tree with every handler
// bound to a no-op.
func loadTree(path string) (*slash.Tree, error) {
	if path == "" {
		return command.Default().Tree()
	}
	f, err := schemafile.Load(path)
	if err != nil {
		return nil, err
	}
	return f.Tree(dryBindings())
}

func dryBindings() schemafile.Bindings {
	noop := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { return nil })
	return schemafile.Bindings{Fallback: func(string) slash.Handler { return noop }}
}
