package cmd

import (
	"fmt"

	"slashroute/internal/command"
	"slashroute/internal/docs"

	"github.com/spf13/cobra"
)

func newReadmeCommand() *cobra.Command {
	var tmplPath, outPath string
	c := &cobra.Command{
		Use:   "readme",
		Short: "Regenerate README.md from the built-in commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tmplPath == "" {
				return docs.Render(cmd.OutOrStdout(), docs.Sections(command.Default()))
			}
			if err := docs.UpdateReadme(command.Default(), tmplPath, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated with current commands\n", outPath)
			return nil
		},
	}
	c.Flags().StringVarP(&tmplPath, "template", "t", "", "README template; without it the reference is printed")
	c.Flags().StringVarP(&outPath, "output", "o", "README.md", "file to write")
	return c
}
