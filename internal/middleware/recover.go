package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"slashroute/internal/command"
	"slashroute/pkg/slash"
)

// WithRecover turns a handler panic into an error.
func WithRecover() slash.Middleware {
	return func(next slash.Handler) slash.Handler {
		return slash.HandlerFunc(func(ctx context.Context, inv *slash.Invocation) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				err = fmt.Errorf("panic in /%s: %v", strings.Join(inv.Path, " "), r)
				if c, cerr := command.From(inv); cerr == nil {
					c.Log.Error().Str("stack", string(debug.Stack())).Msg(err.Error())
				}
			}()
			return next.Handle(ctx, inv)
		})
	}
}
