// Package slash routes hierarchical slash commands.
//
// A Tree is built once from Command declarations and is immutable afterwards.
// Commands nest at most three levels deep (command, subcommand,
// subsubcommand); a node with children is a group and only leaves carry
// options and a Handler.
//
// Compile turns a Tree into registration descriptors for the chat platform.
// A Router walks an incoming Request down the same Tree, decodes the leaf's
// option values into Args and invokes exactly one Handler. Routing failures
// are *DispatchError values wrapping ErrUnrecognizedCommand,
// ErrMissingOption, ErrBadOptionType or ErrBadOptionValue.
//
// The package knows nothing about the transport; the host converts its own
// interaction payloads into Request values.
package slash
