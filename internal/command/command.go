// Package command holds the bot's slash commands and the registry they add
// themselves to at init time.
package command

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

// Command is one top-level slash command.
type Command interface {
	// Declaration returns the command's schema with its handlers attached.
	Declaration() slash.Command
	Category() string
	// UserPermissions lists permission bits of which the caller needs at
	// least one. Empty means everyone may run the command.
	UserPermissions() []int64
}

// Permitted reports whether a caller holding perms may run cmd.
// Administrators and the developer may run everything.
func Permitted(cmd Command, perms int64, developer bool) bool {
	if developer || perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	required := cmd.UserPermissions()
	if len(required) == 0 {
		return true
	}
	for _, p := range required {
		if perms&p != 0 {
			return true
		}
	}
	return false
}

type entry struct {
	cmd Command
	mws []slash.Middleware
}

// Registry keeps commands in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	byName  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds cmd. The middlewares wrap every leaf handler of the command,
// the first one outermost. Registering a name twice replaces the earlier
// command.
func (r *Registry) Register(cmd Command, mws ...slash.Middleware) {
	name := nameOf(cmd.Declaration())
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byName[name]; ok {
		r.entries[i] = entry{cmd, mws}
		return
	}
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, entry{cmd, mws})
}

// Lookup returns the command registered under its wire name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].cmd, true
}

// Names returns the wire names of all commands, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// All returns the commands in registration order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.cmd
	}
	return out
}

// Declarations returns every command's schema with the registration
// middlewares applied to its leaf handlers.
func (r *Registry) Declarations() []slash.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]slash.Command, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, wrap(e.cmd.Declaration(), e.mws))
	}
	return out
}

// Tree builds the routing table from the registered commands.
func (r *Registry) Tree() (*slash.Tree, error) {
	t, err := slash.NewTree(r.Declarations()...)
	if err != nil {
		return nil, fmt.Errorf("build command tree: %w", err)
	}
	return t, nil
}

func wrap(c slash.Command, mws []slash.Middleware) slash.Command {
	if len(mws) == 0 {
		return c
	}
	if c.Handler != nil {
		c.Handler = slash.Chain(c.Handler, mws...)
	}
	subs := make([]slash.SubCommand, len(c.SubCommands))
	for i, sc := range c.SubCommands {
		if sc.Handler != nil {
			sc.Handler = slash.Chain(sc.Handler, mws...)
		}
		leaves := make([]slash.SubSubCommand, len(sc.SubCommands))
		for j, ssc := range sc.SubCommands {
			if ssc.Handler != nil {
				ssc.Handler = slash.Chain(ssc.Handler, mws...)
			}
			leaves[j] = ssc
		}
		if sc.SubCommands != nil {
			sc.SubCommands = leaves
		}
		subs[i] = sc
	}
	if c.SubCommands != nil {
		c.SubCommands = subs
	}
	return c
}

func nameOf(c slash.Command) string {
	if c.Name != "" {
		return c.Name
	}
	return strings.ToLower(c.Ident)
}

var categoryWeights = map[string]int{
	"🕯️ Information": 0,
	"📢 Utilities":    10,
	"🎲 Gameplay":     20,
	"⚙️ Settings":    50,
	"🛠️ Maintenance": 60,
}

// CompareCategories orders categories for listings: known categories by
// weight, unknown ones last and alphabetically.
func CompareCategories(a, b string) int {
	return cmp.Or(cmp.Compare(weight(a), weight(b)), strings.Compare(a, b))
}

func weight(cat string) int {
	if w, ok := categoryWeights[cat]; ok {
		return w
	}
	return 100
}

var defaultRegistry = NewRegistry()

// Default returns the registry that init-time registrations go to.
func Default() *Registry { return defaultRegistry }

// RegisterCommand adds cmd to the default registry.
func RegisterCommand(cmd Command, mws ...slash.Middleware) {
	defaultRegistry.Register(cmd, mws...)
}
