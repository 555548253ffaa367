package cmd

import (
	"fmt"

	"slashroute/internal/schemafile"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <schema-file>...",
		Short: "Validate schema files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				f, err := schemafile.Load(path)
				if err == nil {
					var n int
					n, err = countLeaves(f)
					if err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d commands, %d leaves\n", path, len(f.Commands), n)
						continue
					}
				}
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schema files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func countLeaves(f *schemafile.File) (int, error) {
	tree, err := f.Tree(dryBindings())
	if err != nil {
		return 0, err
	}
	return len(tree.Leaves()), nil
}
