package slash

import "context"

// Invocation is what a handler receives for one routed request: the name
// path that was selected, the decoded arguments, and the host's opaque
// payload (for the Discord adapter, its interaction context).
type Invocation struct {
	Path []string
	Args Args
	Data any
}

// Handler runs the business logic of one leaf.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) error { return f(ctx, inv) }

// Completion describes an autocomplete request for one focused option.
type Completion struct {
	Path    []string
	Focused string
	// Partial is what the user typed so far, tagged like any resolved value.
	Partial Value
	// Args holds the other options that were present and decodable.
	Args Args
	Data any
}

// Completer suggests choices for options declared with Autocomplete.
type Completer interface {
	Complete(ctx context.Context, c *Completion) ([]Choice, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, c *Completion) ([]Choice, error)

func (f CompleterFunc) Complete(ctx context.Context, c *Completion) ([]Choice, error) {
	return f(ctx, c)
}

// Middleware wraps a handler (logging, guards, recovery).
type Middleware func(Handler) Handler

// Chain applies middlewares so that the first in the list is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
