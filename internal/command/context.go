package command

import (
	"context"
	"errors"
	"time"

	"slashroute/internal/storage"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const EmbedColor = 0xb01e66

// ErrNoContext is returned by handlers invoked without a *Context payload.
var ErrNoContext = errors.New("invocation carries no command context")

// Responder sends interaction replies. The discord package implements it on
// top of the session; tests record the embeds instead.
type Responder interface {
	Reply(ctx context.Context, embed *discordgo.MessageEmbed, ephemeral bool) error
}

// Control exposes bot operations to the management commands.
type Control interface {
	// RefreshCommands schedules a registration sync for guildID, or for the
	// global scope when guildID is empty.
	RefreshCommands(guildID string)
	SyncStatus() string
	Latency() time.Duration
}

// Context is the per-interaction payload handed to handlers through
// slash.Invocation.Data.
type Context struct {
	Command   Command
	GuildID   string
	ChannelID string
	User      *slash.User
	// Permissions are the caller's permissions in the channel.
	Permissions int64
	// Developer is set for the configured bot developer.
	Developer bool
	Locale    string
	RequestID string

	Storage   *storage.Storage
	Responder Responder
	Control   Control
	Log       zerolog.Logger

	// Event is the raw interaction; nil outside Discord.
	Event *discordgo.InteractionCreate
}

// From extracts the context from an invocation.
func From(inv *slash.Invocation) (*Context, error) {
	if c, ok := inv.Data.(*Context); ok && c != nil {
		return c, nil
	}
	return nil, ErrNoContext
}

// UserID returns the caller's id, or "" when unknown.
func (c *Context) UserID() string {
	if c.User == nil {
		return ""
	}
	return c.User.ID
}

func (c *Context) Reply(ctx context.Context, embed *discordgo.MessageEmbed) error {
	return c.respond(ctx, embed, false)
}

func (c *Context) ReplyEphemeral(ctx context.Context, embed *discordgo.MessageEmbed) error {
	return c.respond(ctx, embed, true)
}

// Notice replies with a short ephemeral message.
func (c *Context) Notice(ctx context.Context, text string) error {
	return c.respond(ctx, &discordgo.MessageEmbed{Description: text}, true)
}

func (c *Context) respond(ctx context.Context, embed *discordgo.MessageEmbed, ephemeral bool) error {
	if c.Responder == nil {
		return errors.New("context has no responder")
	}
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	return c.Responder.Reply(ctx, embed, ephemeral)
}
