// Package manage implements /manage, the administrator command for toggling
// commands, refreshing their registration and inspecting resolved entities.
package manage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"slashroute/internal/command"
	"slashroute/internal/middleware"
	"slashroute/internal/storage"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

const self = "manage"

var scopes = slash.StringChoices(
	slash.Choice{Name: "This server", Value: "guild", Names: map[string]string{"de_DE": "Dieser Server"}},
	slash.Choice{Name: "Global", Value: "global"},
)

type ManageCommand struct {
	// Registry supplies the command names to toggle.
	Registry *command.Registry
}

func (c *ManageCommand) Category() string { return "⚙️ Settings" }
func (c *ManageCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator, discordgo.PermissionManageGuild}
}

func (c *ManageCommand) Declaration() slash.Command {
	commandOpt := slash.Option{
		Ident:        "command",
		Description:  "Command name",
		Kind:         slash.KindText,
		Autocomplete: true,
	}
	return slash.Command{
		Name:        self,
		Description: "Bot management commands",
		SubCommands: []slash.SubCommand{
			{
				Name:        "commands",
				Description: "Manage the server's slash commands",
				SubCommands: []slash.SubSubCommand{
					{
						Name:        "status",
						Description: "Show disabled commands and registration jobs",
						Handler:     slash.HandlerFunc(c.status),
					},
					{
						Name:        "enable",
						Description: "Enable a disabled command",
						Options:     []slash.Option{commandOpt},
						Handler:     slash.HandlerFunc(c.toggle(false)),
						Completer:   slash.CompleterFunc(c.completeCommand),
					},
					{
						Name:        "disable",
						Description: "Disable a command on this server",
						Options:     []slash.Option{commandOpt},
						Handler:     slash.HandlerFunc(c.toggle(true)),
						Completer:   slash.CompleterFunc(c.completeCommand),
					},
					{
						Name:        "refresh",
						Description: "Re-register slash commands",
						Options: []slash.Option{{
							Ident:       "scope",
							Description: "Which registration to refresh",
							Kind:        slash.KindText,
							Optional:    true,
							Choices:     scopes,
						}},
						Handler: slash.HandlerFunc(c.refresh),
					},
					{
						Name:        "history",
						Description: "Show recent command invocations",
						Options: []slash.Option{
							{
								Ident:       "limit",
								Description: "How many entries to show",
								Kind:        slash.KindInteger,
								Optional:    true,
								MinValue:    ptr(1.0),
								MaxValue:    ptr(20.0),
							},
							{
								Ident:       "user",
								Description: "Only show invocations by this user",
								Kind:        slash.KindUserID,
								Optional:    true,
							},
						},
						Handler: slash.HandlerFunc(c.history),
					},
				},
			},
			inspectGroup(),
		},
	}
}

func (c *ManageCommand) registry() *command.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return command.Default()
}

func (c *ManageCommand) status(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	disabled, err := cctx.Storage.Disabled(cctx.GuildID)
	if err != nil {
		return fmt.Errorf("read disabled commands: %w", err)
	}
	list := "None"
	if len(disabled) > 0 {
		list = "`/" + strings.Join(disabled, "`, `/") + "`"
	}
	fields := []*discordgo.MessageEmbedField{{Name: "Disabled commands", Value: list}}
	if cctx.Control != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Registration", Value: cctx.Control.SyncStatus()})
	}
	return cctx.ReplyEphemeral(ctx, &discordgo.MessageEmbed{Title: "Command status", Fields: fields})
}

func (c *ManageCommand) toggle(disable bool) slash.HandlerFunc {
	return func(ctx context.Context, inv *slash.Invocation) error {
		cctx, err := command.From(inv)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(strings.ToLower(inv.Args.String("command")), "/")
		if _, ok := c.registry().Lookup(name); !ok {
			return cctx.Notice(ctx, fmt.Sprintf("Unknown command `%s`.", name))
		}
		if name == self {
			return cctx.Notice(ctx, "This command can't be toggled.")
		}

		verb := "enabled"
		if disable {
			verb = "disabled"
			err = cctx.Storage.Disable(cctx.GuildID, name)
		} else {
			err = cctx.Storage.Enable(cctx.GuildID, name)
		}
		if err != nil {
			return fmt.Errorf("toggle %s: %w", name, err)
		}
		if cctx.Control != nil {
			cctx.Control.RefreshCommands(cctx.GuildID)
		}
		return cctx.ReplyEphemeral(ctx, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Command `/%s` %s. Registration will update shortly.", name, verb),
		})
	}
}

func (c *ManageCommand) completeCommand(_ context.Context, comp *slash.Completion) ([]slash.Choice, error) {
	partial := strings.TrimPrefix(strings.ToLower(comp.Partial.String), "/")
	var out []slash.Choice
	for _, name := range c.registry().Names() {
		if name != self && strings.HasPrefix(name, partial) {
			out = append(out, slash.Choice{Name: "/" + name, Value: name})
		}
	}
	return out, nil
}

func (c *ManageCommand) refresh(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	if cctx.Control == nil {
		return cctx.Notice(ctx, "Registration is not available right now.")
	}
	scope := "guild"
	if choice, ok := inv.Args.Choice("scope"); ok {
		scope = choice.Value.(string)
	}
	if scope == "global" {
		if !cctx.Developer {
			return cctx.Notice(ctx, "Only the bot developer can refresh global commands.")
		}
		cctx.Control.RefreshCommands("")
		return cctx.Notice(ctx, "Global command refresh scheduled.")
	}
	cctx.Control.RefreshCommands(cctx.GuildID)
	return cctx.Notice(ctx, "Command refresh scheduled.")
}

func (c *ManageCommand) history(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	entries, err := cctx.Storage.History(cctx.GuildID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if inv.Args.Has("user") {
		who := inv.Args.ID("user").String()
		entries = slices.DeleteFunc(slices.Clone(entries), func(e storage.Invocation) bool { return e.UserID != who })
	}
	limit := 10
	if inv.Args.Has("limit") {
		limit = int(inv.Args.Int("limit"))
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		return cctx.Notice(ctx, "No commands were recorded yet.")
	}

	var b strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "<t:%d:R> `%s` by <@%s>", e.Datetime.Unix(), e.Command, e.UserID)
		if e.Error != "" {
			b.WriteString(" ⚠️")
		}
		b.WriteByte('\n')
	}
	return cctx.ReplyEphemeral(ctx, &discordgo.MessageEmbed{Title: "Command history", Description: b.String()})
}

func ptr[T any](v T) *T { return &v }

func init() {
	command.RegisterCommand(
		&ManageCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
	)
}
