package slash

import (
	"context"
	"fmt"
)

// State names the router position a request failed at.
type State uint8

const (
	AtTree State = iota
	AtCommand
	AtSubCommand
	AtSubSubCommand
	HandlerInvoked
)

func (s State) String() string {
	switch s {
	case AtTree:
		return "tree"
	case AtCommand:
		return "command"
	case AtSubCommand:
		return "subcommand"
	case AtSubSubCommand:
		return "subsubcommand"
	case HandlerInvoked:
		return "handler"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Router routes requests down a Tree. It holds no per-request state and is
// safe for concurrent use.
type Router struct {
	tree     *Tree
	mws      []Middleware
	handlers map[*node]Handler
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithMiddleware wraps every leaf handler; the first middleware is outermost.
func WithMiddleware(mws ...Middleware) RouterOption {
	return func(r *Router) { r.mws = append(r.mws, mws...) }
}

// NewRouter returns a router over tree.
func NewRouter(tree *Tree, opts ...RouterOption) *Router {
	r := &Router{tree: tree}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = make(map[*node]Handler, len(tree.nodes))
	for _, n := range tree.nodes {
		if !n.group && n.handler != nil {
			r.handlers[n] = Chain(n.handler, r.mws...)
		}
	}
	return r
}

// Tree returns the routing table.
func (r *Router) Tree() *Tree { return r.tree }

// Route is a fully decoded request that has not been invoked yet.
type Route struct {
	Path    []string
	Args    Args
	handler Handler
}

// Invoke runs the route's handler once.
func (rt *Route) Invoke(ctx context.Context, data any) error {
	return rt.handler.Handle(ctx, &Invocation{Path: rt.Path, Args: rt.Args, Data: data})
}

// Dispatch routes req and invokes exactly one handler. Routing and decoding
// failures are returned as *DispatchError and no handler runs.
func (r *Router) Dispatch(ctx context.Context, req *Request, data any) error {
	rt, err := r.Route(req)
	if err != nil {
		return err
	}
	return rt.Invoke(ctx, data)
}

// Route walks the tree and decodes the leaf's options without invoking.
func (r *Router) Route(req *Request) (*Route, error) {
	n, opts, err := r.resolve(req)
	if err != nil {
		return nil, err
	}
	args, err := decodeArgs(n, opts)
	if err != nil {
		return nil, err
	}
	return &Route{Path: append([]string(nil), n.path...), Args: args, handler: r.handlers[n]}, nil
}

// resolve runs the AtTree -> AtCommand -> AtSubCommand -> AtSubSubCommand
// transitions and returns the selected leaf with its flat value list.
func (r *Router) resolve(req *Request) (*node, []RequestOption, error) {
	if req == nil {
		return nil, nil, &DispatchError{State: AtTree, Err: ErrUnrecognizedCommand}
	}
	n, ok := r.tree.root(req.Name)
	if !ok {
		return nil, nil, dispatchErr(AtTree, []string{req.Name}, "", ErrUnrecognizedCommand)
	}
	st := AtCommand
	opts := req.Options

	for n.group {
		if len(opts) != 1 {
			return nil, nil, dispatchErr(st, n.path, "", ErrUnrecognizedCommand)
		}
		sel := opts[0]
		child, ok := r.tree.child(n, sel.Name)
		if !ok {
			return nil, nil, dispatchErr(st, append(append([]string(nil), n.path...), sel.Name), "", ErrUnrecognizedCommand)
		}
		want := NodeSubCommand
		if child.group {
			want = NodeGroup
		}
		if sel.Kind != want {
			return nil, nil, dispatchErr(st, child.path, "", ErrUnrecognizedCommand)
		}
		n, opts = child, sel.Options
		st++
	}

	for _, o := range opts {
		if o.Kind != NodeValue {
			return nil, nil, dispatchErr(st, n.path, o.Name, ErrUnrecognizedCommand)
		}
	}
	if r.handlers[n] == nil {
		return nil, nil, dispatchErr(st, n.path, "", ErrUnrecognizedCommand)
	}
	return n, opts, nil
}

// lookup returns the last entry named name; duplicates should not come from a
// well-formed request.
func lookup(opts []RequestOption, name string) (RequestOption, bool) {
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i].Name == name {
			return opts[i], true
		}
	}
	return RequestOption{}, false
}

func decodeArgs(n *node, opts []RequestOption) (Args, error) {
	var args Args
	st := leafState(n)
	for _, o := range n.options {
		entry, found := lookup(opts, o.name)
		var (
			v   any
			err error
		)
		if found {
			v, err = o.decode(entry.Value)
		} else {
			v, err = o.missing()
		}
		if err != nil {
			return Args{}, dispatchErr(st, n.path, o.name, err)
		}
		if found || v != nil {
			args.set(o.name, v)
		}
	}
	return args, nil
}

func leafState(n *node) State {
	return State(len(n.path))
}

// Complete routes an autocomplete request to the leaf's Completer. The
// focused option must be declared with Autocomplete.
func (r *Router) Complete(ctx context.Context, req *Request, data any) ([]Choice, error) {
	n, opts, err := r.resolve(req)
	if err != nil {
		return nil, err
	}
	st := leafState(n)

	var focused *RequestOption
	for i := range opts {
		if opts[i].Focused {
			focused = &opts[i]
		}
	}
	if focused == nil {
		return nil, dispatchErr(st, n.path, "", ErrUnrecognizedCommand)
	}
	var decl *option
	for _, o := range n.options {
		if o.name == focused.Name {
			decl = o
		}
	}
	if decl == nil || !decl.Autocomplete || n.completer == nil {
		return nil, dispatchErr(st, n.path, focused.Name, ErrUnrecognizedCommand)
	}

	var args Args
	for _, o := range n.options {
		if o == decl {
			continue
		}
		if entry, ok := lookup(opts, o.name); ok {
			if v, err := o.decode(entry.Value); err == nil {
				args.set(o.name, v)
			}
		}
	}
	return n.completer.Complete(ctx, &Completion{
		Path:    append([]string(nil), n.path...),
		Focused: focused.Name,
		Partial: focused.Value,
		Args:    args,
		Data:    data,
	})
}
