package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"slashroute/internal/discord"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRouteCommand(load func() (*slash.Tree, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "route [payload.json]",
		Short: "Route an interaction data payload and print the decoded arguments",
		Long: `route reads the "data" object of an application command interaction
from the given file, or stdin when omitted, and resolves it against the
command tree. Handlers are not run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := load()
			if err != nil {
				return fmt.Errorf("load commands: %w", err)
			}
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			var data discordgo.ApplicationCommandInteractionData
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			rt, err := slash.NewRouter(tree).Route(discord.Request(data))
			if err != nil {
				var de *slash.DispatchError
				if errors.As(err, &de) {
					fmt.Fprintf(cmd.ErrOrStderr(), "rejected at %s\n", de.State)
				}
				return err
			}
			return printRoute(cmd.OutOrStdout(), rt)
		},
	}
}

func printRoute(w io.Writer, rt *slash.Route) error {
	fmt.Fprintf(w, "path: /%s\n", strings.Join(rt.Path, " "))
	if rt.Args.Len() == 0 {
		_, err := fmt.Fprintln(w, "args: {}")
		return err
	}
	args := yaml.Node{Kind: yaml.MappingNode}
	for _, name := range rt.Args.Names() {
		v, _ := rt.Args.Get(name)
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		args.Content = append(args.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &val)
	}
	out, err := yaml.Marshal(map[string]*yaml.Node{"args": &args})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
