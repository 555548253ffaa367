package middleware

import (
	"context"

	"slashroute/internal/command"
	"slashroute/pkg/slash"
)

// WithGuildOnly rejects invocations from direct messages.
func WithGuildOnly() slash.Middleware {
	return guard(func(ctx context.Context, c *command.Context, _ *slash.Invocation) (bool, error) {
		if c.GuildID != "" {
			return true, nil
		}
		return false, c.Notice(ctx, "You must be in a guild to use this command.")
	})
}
