package slash

import (
	"errors"
	"fmt"
	"strings"
)

// Routing and decoding errors. They are deterministic for a given schema and
// request; callers should report them rather than retry.
var (
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	ErrMissingOption       = errors.New("missing option")
	ErrBadOptionType       = errors.New("bad option type")
	ErrBadOptionValue      = errors.New("bad option value")
)

// DispatchError locates a routing or decoding failure within the request.
type DispatchError struct {
	// State is the router position where the request was rejected.
	State  State
	Path   []string
	Option string
	Err    error
}

func (e *DispatchError) Error() string {
	var b strings.Builder
	b.WriteString("slash")
	if len(e.Path) > 0 {
		b.WriteString(": /")
		b.WriteString(strings.Join(e.Path, " "))
	}
	if e.Option != "" {
		fmt.Fprintf(&b, ": option %q", e.Option)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DispatchError) Unwrap() error { return e.Err }

func dispatchErr(st State, path []string, option string, err error) error {
	return &DispatchError{State: st, Path: append([]string(nil), path...), Option: option, Err: err}
}

// SchemaError reports an invalid declaration. NewTree joins all of them.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "slash schema: " + e.Reason
	}
	return fmt.Sprintf("slash schema: %s: %s", e.Path, e.Reason)
}
