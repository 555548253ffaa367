package manage

import (
	"context"
	"fmt"
	"strings"

	"slashroute/internal/command"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

func inspectGroup() slash.SubCommand {
	leaf := func(name, desc string, kind slash.Kind) slash.SubSubCommand {
		return slash.SubSubCommand{
			Name:        name,
			Description: desc,
			Options: []slash.Option{{
				Ident:       "target",
				Description: "What to inspect",
				Kind:        kind,
			}},
			Handler: slash.HandlerFunc(inspect),
		}
	}
	return slash.SubCommand{
		Name:        "inspect",
		Description: "Show what the bot resolves an option to",
		SubCommands: []slash.SubSubCommand{
			leaf("user", "Inspect a user", slash.KindUser),
			leaf("member", "Inspect a server member", slash.KindMember),
			leaf("role", "Inspect a role", slash.KindRole),
			leaf("channel", "Inspect a channel", slash.KindChannel),
			leaf("mentionable", "Inspect a user or role", slash.KindMentionable),
			leaf("attachment", "Inspect an uploaded file", slash.KindAttachment),
		},
	}
}

func inspect(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	v, _ := inv.Args.Get("target")
	return cctx.ReplyEphemeral(ctx, &discordgo.MessageEmbed{
		Title:  "Inspect " + inv.Path[len(inv.Path)-1],
		Fields: describe(v),
	})
}

func field(name, value string) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}

func describe(v any) []*discordgo.MessageEmbedField {
	switch v := v.(type) {
	case *slash.User:
		return []*discordgo.MessageEmbedField{
			field("ID", v.ID),
			field("Username", v.Username),
			field("Display name", v.GlobalName),
			field("Bot", fmt.Sprint(v.Bot)),
		}
	case *slash.Member:
		out := describe(v.User)
		return append(out,
			field("Nickname", v.Nick),
			field("Roles", strings.Join(wrapIDs("<@&", v.Roles), " ")),
			field("Joined", fmt.Sprintf("<t:%d:D>", v.JoinedAt.Unix())),
		)
	case *slash.Role:
		return []*discordgo.MessageEmbedField{
			field("ID", v.ID),
			field("Name", v.Name),
			field("Color", fmt.Sprintf("#%06x", v.Color)),
			field("Mentionable", fmt.Sprint(v.Mentionable)),
		}
	case *slash.Channel:
		return []*discordgo.MessageEmbedField{
			field("ID", v.ID),
			field("Name", v.Name),
			field("Type", fmt.Sprint(v.Type)),
			field("Parent", v.ParentID),
		}
	case slash.Mentionable:
		if v.Role != nil {
			return describe(v.Role)
		}
		return describe(v.User)
	case *slash.Attachment:
		return []*discordgo.MessageEmbedField{
			field("ID", v.ID),
			field("File", v.Filename),
			field("Type", v.ContentType),
			field("Size", fmt.Sprintf("%d bytes", v.Size)),
		}
	}
	return []*discordgo.MessageEmbedField{field("Value", fmt.Sprint(v))}
}

func wrapIDs(prefix string, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id + ">"
	}
	return out
}
