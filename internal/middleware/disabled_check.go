package middleware

import (
	"context"

	"slashroute/internal/command"
	"slashroute/pkg/slash"
)

// WithDisabledCheck refuses commands an administrator disabled in the guild.
// Storage failures let the command run.
func WithDisabledCheck() slash.Middleware {
	return guard(func(ctx context.Context, c *command.Context, inv *slash.Invocation) (bool, error) {
		if c.Storage == nil || c.GuildID == "" || len(inv.Path) == 0 {
			return true, nil
		}
		disabled, err := c.Storage.IsDisabled(c.GuildID, inv.Path[0])
		if err != nil {
			c.Log.Warn().Err(err).Str("guild", c.GuildID).Msg("Failed to read disabled commands")
			return true, nil
		}
		if disabled {
			return false, c.Notice(ctx, "This command is disabled on this server.\nUse `/manage commands status` to check which commands are disabled.")
		}
		return true, nil
	})
}
