package slash

// NodeKind is the structural kind of one entry in a request level.
type NodeKind uint8

const (
	NodeValue NodeKind = iota
	NodeSubCommand
	NodeGroup
)

func (k NodeKind) String() string {
	switch k {
	case NodeValue:
		return "value"
	case NodeSubCommand:
		return "subcommand"
	case NodeGroup:
		return "group"
	}
	return "unknown"
}

// RequestOption is one entry of a request level: either a branch selection
// (NodeSubCommand, NodeGroup) carrying the next level in Options, or a named
// resolved value (NodeValue).
type RequestOption struct {
	Name    string
	Kind    NodeKind
	Value   Value
	Options []RequestOption
	// Focused marks the option being typed in an autocomplete request.
	Focused bool
}

// Request is an incoming, already-parsed command invocation. Name selects the
// top-level command; Options is the first nested level.
type Request struct {
	Name    string
	Options []RequestOption
}

// Sub builds a subcommand selection.
func Sub(name string, opts ...RequestOption) RequestOption {
	return RequestOption{Name: name, Kind: NodeSubCommand, Options: opts}
}

// Group builds a subcommand-group selection.
func Group(name string, opts ...RequestOption) RequestOption {
	return RequestOption{Name: name, Kind: NodeGroup, Options: opts}
}

// Opt builds a named value entry.
func Opt(name string, v Value) RequestOption {
	return RequestOption{Name: name, Kind: NodeValue, Value: v}
}
