// Package middleware holds the handler wrappers shared by the bot's commands.
// Every wrapper passes invocations without a command context straight through.
package middleware

import (
	"context"

	"slashroute/internal/command"
	"slashroute/pkg/slash"
)

// guard builds a middleware that runs check before the handler. When check
// returns false the handler is skipped and the invocation succeeds.
func guard(check func(ctx context.Context, c *command.Context, inv *slash.Invocation) (bool, error)) slash.Middleware {
	return func(next slash.Handler) slash.Handler {
		return slash.HandlerFunc(func(ctx context.Context, inv *slash.Invocation) error {
			c, err := command.From(inv)
			if err != nil {
				return next.Handle(ctx, inv)
			}
			ok, err := check(ctx, c, inv)
			if err != nil || !ok {
				return err
			}
			return next.Handle(ctx, inv)
		})
	}
}
