// Package help implements /help, which lists the commands the caller may run.
package help

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"slashroute/internal/command"
	"slashroute/internal/version"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

var views = slash.StringChoices(
	slash.Choice{Name: "Categories", Value: "category", Names: map[string]string{"de_DE": "Kategorien"}},
	slash.Choice{Name: "Flat list", Value: "flat", Names: map[string]string{"de_DE": "Liste"}},
)

type HelpCommand struct {
	Registry *command.Registry
}

func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return nil }

func (c *HelpCommand) Declaration() slash.Command {
	return slash.Command{
		Name:         "help",
		Description:  "Get a list of available commands",
		Descriptions: map[string]string{"de_DE": "Liste der verfügbaren Befehle"},
		Options: []slash.Option{{
			Ident:       "view",
			Description: "View commands by category or as a flat list",
			Kind:        slash.KindText,
			Optional:    true,
			Choices:     views,
		}},
		Handler: slash.HandlerFunc(c.run),
	}
}

func (c *HelpCommand) registry() *command.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return command.Default()
}

func (c *HelpCommand) run(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	visible := c.visible(cctx)

	var body string
	if inv.Args.String("view") == "flat" {
		body = flat(visible)
	} else {
		body = byCategory(visible)
	}
	return cctx.ReplyEphemeral(ctx, &discordgo.MessageEmbed{
		Title:       version.AppName + " Help",
		Description: body,
		Footer:      &discordgo.MessageEmbedFooter{Text: version.String()},
	})
}

// visible drops commands the caller lacks permissions for or that are
// disabled in the caller's guild.
func (c *HelpCommand) visible(cctx *command.Context) []command.Command {
	var disabled []string
	if cctx.Storage != nil && cctx.GuildID != "" {
		if d, err := cctx.Storage.Disabled(cctx.GuildID); err == nil {
			disabled = d
		} else {
			cctx.Log.Warn().Err(err).Msg("Failed to read disabled commands")
		}
	}
	var out []command.Command
	for _, cmd := range c.registry().All() {
		if !command.Permitted(cmd, cctx.Permissions, cctx.Developer) {
			continue
		}
		if slices.Contains(disabled, name(cmd.Declaration().Ident, cmd.Declaration().Name)) {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func byCategory(cmds []command.Command) string {
	groups := map[string][]slash.Command{}
	for _, cmd := range cmds {
		groups[cmd.Category()] = append(groups[cmd.Category()], cmd.Declaration())
	}
	cats := make([]string, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	slices.SortFunc(cats, command.CompareCategories)

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		decls := groups[cat]
		slices.SortFunc(decls, func(a, b slash.Command) int {
			return strings.Compare(name(a.Ident, a.Name), name(b.Ident, b.Name))
		})
		for _, d := range decls {
			fmt.Fprintf(&sb, "`/%s` - %s\n", name(d.Ident, d.Name), d.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// flat lists every invocable path.
func flat(cmds []command.Command) string {
	var lines []string
	add := func(path []string, desc string) {
		lines = append(lines, fmt.Sprintf("`/%s` - %s", strings.Join(path, " "), desc))
	}
	for _, cmd := range cmds {
		d := cmd.Declaration()
		root := name(d.Ident, d.Name)
		if len(d.SubCommands) == 0 {
			add([]string{root}, d.Description)
		}
		for _, sc := range d.SubCommands {
			sub := name(sc.Ident, sc.Name)
			if len(sc.SubCommands) == 0 {
				add([]string{root, sub}, sc.Description)
			}
			for _, ssc := range sc.SubCommands {
				add([]string{root, sub, name(ssc.Ident, ssc.Name)}, ssc.Description)
			}
		}
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

func name(ident, wire string) string {
	if wire != "" {
		return wire
	}
	return strings.ToLower(ident)
}

func init() {
	command.RegisterCommand(&HelpCommand{})
}
