package ping

import (
	"context"
	"fmt"

	"slashroute/internal/command"
	"slashroute/internal/middleware"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

type PingCommand struct{}

func (c *PingCommand) Category() string         { return "🕯️ Information" }
func (c *PingCommand) UserPermissions() []int64 { return nil }

func (c *PingCommand) Declaration() slash.Command {
	return slash.Command{
		Name:        "ping",
		Description: "Check bot latency",
		Descriptions: map[string]string{
			"pl_PL": "Sprawdź opóźnienie bota",
			"de_DE": "Latenz des Bots prüfen",
		},
		Options: []slash.Option{
			{
				Ident:       "private",
				Description: "Only show the answer to you",
				Kind:        slash.KindBoolean,
				Default:     true,
			},
		},
		Handler: slash.HandlerFunc(c.run),
	}
}

func (c *PingCommand) run(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{Title: "Pong! 🏓"}
	if cctx.Control != nil {
		embed.Description = fmt.Sprintf("Latency: %dms", cctx.Control.Latency().Milliseconds())
	}
	if inv.Args.Bool("private") {
		return cctx.ReplyEphemeral(ctx, embed)
	}
	return cctx.Reply(ctx, embed)
}

func init() {
	command.RegisterCommand(
		&PingCommand{},
		middleware.WithDisabledCheck(),
	)
}
