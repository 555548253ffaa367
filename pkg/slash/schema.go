package slash

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Platform limits applied while building a tree.
const (
	maxCommands       = 100
	maxChildren       = 25
	maxChoices        = 25
	maxNameLen        = 32
	maxDescriptionLen = 100
	maxLength         = 6000
)

var nameRe = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

// Option declares one typed argument of a leaf node.
type Option struct {
	// Ident is the declared identifier; the wire name is Name, or Ident lower-cased.
	Ident       string
	Name        string
	Description string

	Names        map[string]string
	Descriptions map[string]string

	Kind Kind
	// Optional options decode to "no value" when absent.
	Optional bool
	// Default options decode to the kind's zero value when absent.
	Default bool

	MinValue  *float64
	MaxValue  *float64
	MinLength *int
	MaxLength *int

	Autocomplete bool
	Choices      *ChoiceSet
}

// SubSubCommand is a terminal node at depth three.
type SubSubCommand struct {
	Ident        string
	Name         string
	Description  string
	Names        map[string]string
	Descriptions map[string]string

	Options   []Option
	Handler   Handler
	Completer Completer
}

// SubCommand is a leaf when SubCommands is empty, a group otherwise.
type SubCommand struct {
	Ident        string
	Name         string
	Description  string
	Names        map[string]string
	Descriptions map[string]string

	Options   []Option
	Handler   Handler
	Completer Completer

	SubCommands []SubSubCommand
}

// Command is a top-level entry: a leaf when SubCommands is empty, a group otherwise.
type Command struct {
	Ident        string
	Name         string
	Description  string
	Names        map[string]string
	Descriptions map[string]string

	Options   []Option
	Handler   Handler
	Completer Completer

	SubCommands []SubCommand
}

// decl is the depth-independent shape every declaration is lowered to.
type decl struct {
	ident, name, description string
	names, descriptions      map[string]string
	options                  []Option
	handler                  Handler
	completer                Completer
	children                 []decl
}

func (c Command) decl() decl {
	d := decl{c.Ident, c.Name, c.Description, c.Names, c.Descriptions, c.Options, c.Handler, c.Completer, nil}
	for _, sc := range c.SubCommands {
		d.children = append(d.children, sc.decl())
	}
	return d
}

func (c SubCommand) decl() decl {
	d := decl{c.Ident, c.Name, c.Description, c.Names, c.Descriptions, c.Options, c.Handler, c.Completer, nil}
	for _, ssc := range c.SubCommands {
		d.children = append(d.children, ssc.decl())
	}
	return d
}

func (c SubSubCommand) decl() decl {
	return decl{c.Ident, c.Name, c.Description, c.Names, c.Descriptions, c.Options, c.Handler, c.Completer, nil}
}

type option struct {
	Option
	name         string
	names        map[string]string
	descriptions map[string]string
}

func (o *option) required() bool { return !o.Optional && !o.Default }

func (o *option) decode(v Value) (any, error) {
	if o.Choices != nil {
		return o.Choices.decode(v)
	}
	return Decode(o.Kind, v)
}

// missing applies the fallback policy for an absent value. A nil value with a
// nil error means "no value".
func (o *option) missing() (any, error) {
	switch {
	case o.Optional:
		return nil, nil
	case o.Default:
		return codecs[o.Kind].zero, nil
	}
	return nil, ErrMissingOption
}

type node struct {
	path         []string
	name         string
	description  string
	names        map[string]string
	descriptions map[string]string

	group    bool
	children []int
	options  []*option

	handler   Handler
	completer Completer
}

// Tree is the immutable routing table: an arena of nodes addressed by their
// name path. It is safe for concurrent use once built.
type Tree struct {
	nodes []*node
	roots []int
	index map[string]int
}

func pathKey(path []string) string { return strings.Join(path, "/") }

// NewTree validates the declarations and builds the routing table. All
// problems are reported together; a non-nil error means no tree.
func NewTree(cmds ...Command) (*Tree, error) {
	if err := CheckCodecs(); err != nil {
		return nil, fmt.Errorf("codec self-check: %w", err)
	}

	b := &builder{tree: &Tree{index: make(map[string]int)}}
	if len(cmds) == 0 {
		b.fail("", "tree declares no commands")
	}
	if len(cmds) > maxCommands {
		b.fail("", fmt.Sprintf("%d commands exceed the limit of %d", len(cmds), maxCommands))
	}
	decls := make([]decl, 0, len(cmds))
	for _, c := range cmds {
		decls = append(decls, c.decl())
	}
	b.tree.roots = b.addLevel(nil, decls)

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.tree, nil
}

// MustTree is NewTree for startup code that cannot continue with a bad schema.
func MustTree(cmds ...Command) *Tree {
	t, err := NewTree(cmds...)
	if err != nil {
		panic(err)
	}
	return t
}

type builder struct {
	tree *Tree
	errs []error
}

func (b *builder) fail(path, reason string) {
	b.errs = append(b.errs, &SchemaError{Path: path, Reason: reason})
}

func (b *builder) addLevel(parent []string, decls []decl) []int {
	ids := make([]int, 0, len(decls))
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		name := wireName(d.ident, d.name)
		path := append(append([]string(nil), parent...), name)
		if seen[name] {
			b.fail(strings.Join(path, " "), "duplicate name")
			continue
		}
		seen[name] = true
		ids = append(ids, b.addNode(path, d))
	}
	return ids
}

func (b *builder) addNode(path []string, d decl) int {
	where := strings.Join(path, " ")
	name := path[len(path)-1]

	if err := checkName(name); err != nil {
		b.fail(where, err.Error())
	}
	if err := checkText("description", d.description, maxDescriptionLen); err != nil {
		b.fail(where, err.Error())
	}
	b.errs = append(b.errs, checkLocales(where, d.names)...)
	b.errs = append(b.errs, checkLocales(where, d.descriptions)...)

	n := &node{
		path:         path,
		name:         name,
		description:  d.description,
		names:        copyMap(d.names),
		descriptions: copyMap(d.descriptions),
		group:        len(d.children) > 0,
		handler:      d.handler,
		completer:    d.completer,
	}
	id := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, n)
	b.tree.index[pathKey(path)] = id

	if n.group {
		if len(d.options) > 0 {
			b.fail(where, "a group cannot declare options")
		}
		if d.handler != nil || d.completer != nil {
			b.fail(where, "a group cannot have a handler")
		}
		if len(d.children) > maxChildren {
			b.fail(where, fmt.Sprintf("%d children exceed the limit of %d", len(d.children), maxChildren))
		}
		n.children = b.addLevel(path, d.children)
		return id
	}

	if d.handler == nil {
		b.fail(where, "leaf has no handler")
	}
	if len(d.options) > maxChildren {
		b.fail(where, fmt.Sprintf("%d options exceed the limit of %d", len(d.options), maxChildren))
	}
	seen := make(map[string]bool, len(d.options))
	optionalSeen := false
	for _, od := range d.options {
		o := b.addOption(where, od)
		if seen[o.name] {
			b.fail(where+" ["+o.name+"]", "duplicate option name")
			continue
		}
		seen[o.name] = true
		if o.required() && optionalSeen {
			b.fail(where+" ["+o.name+"]", "required option declared after an optional one")
		}
		if !o.required() {
			optionalSeen = true
		}
		n.options = append(n.options, o)
	}
	return id
}

func (b *builder) addOption(parent string, od Option) *option {
	o := &option{Option: od, name: wireName(od.Ident, od.Name)}
	o.Names = nil
	o.Descriptions = nil
	o.names = copyMap(od.Names)
	o.descriptions = copyMap(od.Descriptions)
	where := parent + " [" + o.name + "]"

	if err := checkName(o.name); err != nil {
		b.fail(where, err.Error())
	}
	if err := checkText("description", od.Description, maxDescriptionLen); err != nil {
		b.fail(where, err.Error())
	}
	b.errs = append(b.errs, checkLocales(where, od.Names)...)
	b.errs = append(b.errs, checkLocales(where, od.Descriptions)...)

	if _, ok := codecs[od.Kind]; !ok {
		b.fail(where, fmt.Sprintf("unsupported kind %s", od.Kind))
		return o
	}
	if od.Optional && od.Default {
		b.fail(where, "an option cannot be both optional and default")
	}
	if od.Default && (!HasDefault(od.Kind) || od.Choices != nil) {
		b.fail(where, fmt.Sprintf("kind %s has no default value", od.Kind))
	}
	if od.Choices != nil {
		b.errs = append(b.errs, od.Choices.validate(where)...)
		if od.Choices.Kind() != od.Kind {
			b.fail(where, fmt.Sprintf("choices of kind %s on an option of kind %s", od.Choices.Kind(), od.Kind))
		}
		if od.Autocomplete {
			b.fail(where, "autocomplete and choices are mutually exclusive")
		}
	}
	if od.Autocomplete && od.Kind != KindText && od.Kind != KindInteger && od.Kind != KindFloat {
		b.fail(where, fmt.Sprintf("autocomplete is not supported for kind %s", od.Kind))
	}
	for _, v := range []*float64{od.MinValue, od.MaxValue} {
		if v != nil && !finite(*v) {
			b.fail(where, fmt.Sprintf("value bound %v is not a finite number", *v))
		}
	}
	if od.MinValue != nil && od.MaxValue != nil && *od.MinValue > *od.MaxValue {
		b.fail(where, "min_value is greater than max_value")
	}
	for _, l := range []*int{od.MinLength, od.MaxLength} {
		if l != nil && (*l < 0 || *l > maxLength) {
			b.fail(where, fmt.Sprintf("length bound %d outside 0..%d", *l, maxLength))
		}
	}
	if od.MinLength != nil && od.MaxLength != nil && *od.MinLength > *od.MaxLength {
		b.fail(where, "min_length is greater than max_length")
	}
	return o
}

func wireName(ident, name string) string {
	if name != "" {
		return name
	}
	return strings.ToLower(ident)
}

func checkName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.ToLower(name) != name {
		return fmt.Errorf("name %q must be lower-case", name)
	}
	return nil
}

func checkText(what, s string, limit int) error {
	n := utf8.RuneCountInString(s)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("missing %s", what)
	}
	if n > limit {
		return fmt.Errorf("%s longer than %d characters", what, limit)
	}
	return nil
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Commands returns the top-level command names in declaration order.
func (t *Tree) Commands() []string {
	names := make([]string, 0, len(t.roots))
	for _, id := range t.roots {
		names = append(names, t.nodes[id].name)
	}
	return names
}

// Leaves returns the name path of every routable leaf in declaration order.
func (t *Tree) Leaves() [][]string {
	var out [][]string
	var walk func(ids []int)
	walk = func(ids []int) {
		for _, id := range ids {
			n := t.nodes[id]
			if n.group {
				walk(n.children)
				continue
			}
			out = append(out, append([]string(nil), n.path...))
		}
	}
	walk(t.roots)
	return out
}

// OptionNames returns the option names declared on the leaf at path.
func (t *Tree) OptionNames(path ...string) ([]string, bool) {
	id, ok := t.index[pathKey(path)]
	if !ok || t.nodes[id].group {
		return nil, false
	}
	names := make([]string, 0, len(t.nodes[id].options))
	for _, o := range t.nodes[id].options {
		names = append(names, o.name)
	}
	return names, true
}

func (t *Tree) child(parent *node, name string) (*node, bool) {
	if strings.Contains(name, "/") {
		return nil, false
	}
	path := append(append([]string(nil), parent.path...), name)
	id, ok := t.index[pathKey(path)]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

func (t *Tree) root(name string) (*node, bool) {
	if strings.Contains(name, "/") {
		return nil, false
	}
	id, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}
