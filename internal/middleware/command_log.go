package middleware

import (
	"context"
	"strings"
	"time"

	"slashroute/internal/command"
	"slashroute/internal/storage"
	"slashroute/pkg/slash"

	"github.com/google/uuid"
)

// WithCommandLogger logs each invocation and appends it to the guild's
// history. It assigns the request id when the context has none.
func WithCommandLogger() slash.Middleware {
	return func(next slash.Handler) slash.Handler {
		return slash.HandlerFunc(func(ctx context.Context, inv *slash.Invocation) error {
			c, err := command.From(inv)
			if err != nil {
				return next.Handle(ctx, inv)
			}
			if c.RequestID == "" {
				c.RequestID = uuid.NewString()
			}
			path := "/" + strings.Join(inv.Path, " ")
			log := c.Log.With().
				Str("request_id", c.RequestID).
				Str("command", path).
				Str("guild", c.GuildID).
				Str("user", c.UserID()).
				Logger()
			c.Log = log

			start := time.Now()
			err = next.Handle(ctx, inv)
			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev.Dur("took", time.Since(start)).Strs("args", inv.Args.Names()).Msg("Command finished")

			if c.Storage != nil {
				entry := storage.Invocation{
					RequestID: c.RequestID,
					Command:   path,
					ChannelID: c.ChannelID,
					UserID:    c.UserID(),
					Datetime:  start.UTC(),
				}
				if c.User != nil {
					entry.Username = c.User.Username
				}
				if err != nil {
					entry.Error = err.Error()
				}
				if herr := c.Storage.AppendHistory(c.GuildID, entry); herr != nil {
					log.Warn().Err(herr).Msg("Failed to record command history")
				}
			}
			return err
		})
	}
}
