// Package schemafile loads command trees declared in YAML or TOML files and
// binds their leaves to named handlers.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"slashroute/pkg/slash"
)

// Format is a schema file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// DetectFormat picks the format from the file extension; unknown extensions
// are read as YAML, which also covers JSON.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// File is a parsed schema file.
type File struct {
	Commands []Node `yaml:"commands" toml:"commands"`
}

// Node declares a command, subcommand or subsubcommand. Nodes with children
// are groups; the others name a handler.
type Node struct {
	Name         string            `yaml:"name" toml:"name"`
	Description  string            `yaml:"description" toml:"description"`
	Names        map[string]string `yaml:"name_localizations" toml:"name_localizations"`
	Descriptions map[string]string `yaml:"description_localizations" toml:"description_localizations"`
	Handler      string            `yaml:"handler" toml:"handler"`
	Completer    string            `yaml:"completer" toml:"completer"`
	Options      []OptionNode      `yaml:"options" toml:"options"`
	SubCommands  []Node            `yaml:"subcommands" toml:"subcommands"`
}

type OptionNode struct {
	Name         string            `yaml:"name" toml:"name"`
	Description  string            `yaml:"description" toml:"description"`
	Names        map[string]string `yaml:"name_localizations" toml:"name_localizations"`
	Descriptions map[string]string `yaml:"description_localizations" toml:"description_localizations"`
	Kind         string            `yaml:"kind" toml:"kind"`
	Optional     bool              `yaml:"optional" toml:"optional"`
	Default      bool              `yaml:"default" toml:"default"`
	MinValue     *float64          `yaml:"min_value" toml:"min_value"`
	MaxValue     *float64          `yaml:"max_value" toml:"max_value"`
	MinLength    *int              `yaml:"min_length" toml:"min_length"`
	MaxLength    *int              `yaml:"max_length" toml:"max_length"`
	Autocomplete bool              `yaml:"autocomplete" toml:"autocomplete"`
	Choices      []ChoiceNode      `yaml:"choices" toml:"choices"`
}

type ChoiceNode struct {
	Name  string            `yaml:"name" toml:"name"`
	Value any               `yaml:"value" toml:"value"`
	Names map[string]string `yaml:"name_localizations" toml:"name_localizations"`
}

// Parse decodes a schema document. Unknown keys are errors.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("toml: unknown key %q", undecoded[0].String())
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
	}
	if len(f.Commands) == 0 {
		return nil, errors.New("schema declares no commands")
	}
	return &f, nil
}

// Load reads and parses path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Bindings resolves the handler and completer names used in a file.
type Bindings struct {
	Handlers   map[string]slash.Handler
	Completers map[string]slash.Completer
	// Fallback serves handler names missing from Handlers when set.
	Fallback func(name string) slash.Handler
}

func (b Bindings) handler(name string) (slash.Handler, error) {
	if name == "" {
		return nil, nil
	}
	if h, ok := b.Handlers[name]; ok {
		return h, nil
	}
	if b.Fallback != nil {
		return b.Fallback(name), nil
	}
	return nil, fmt.Errorf("unknown handler %q", name)
}

func (b Bindings) completer(name string) (slash.Completer, error) {
	if name == "" {
		return nil, nil
	}
	if c, ok := b.Completers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown completer %q", name)
}

// Declarations converts the file into slash declarations. Structural schema
// rules are left to slash.NewTree; this only resolves kinds and bindings.
func (f *File) Declarations(b Bindings) ([]slash.Command, error) {
	var errs []error
	cmds := make([]slash.Command, 0, len(f.Commands))
	for _, n := range f.Commands {
		c := slash.Command{Name: n.Name, Description: n.Description, Names: n.Names, Descriptions: n.Descriptions}
		c.Options, c.Handler, c.Completer = leafParts(n, b, n.Name, &errs)
		for _, sn := range n.SubCommands {
			where := n.Name + " " + sn.Name
			sc := slash.SubCommand{Name: sn.Name, Description: sn.Description, Names: sn.Names, Descriptions: sn.Descriptions}
			sc.Options, sc.Handler, sc.Completer = leafParts(sn, b, where, &errs)
			for _, ssn := range sn.SubCommands {
				where := where + " " + ssn.Name
				if len(ssn.SubCommands) > 0 {
					errs = append(errs, fmt.Errorf("%s: commands nest at most three levels deep", where))
				}
				ssc := slash.SubSubCommand{Name: ssn.Name, Description: ssn.Description, Names: ssn.Names, Descriptions: ssn.Descriptions}
				ssc.Options, ssc.Handler, ssc.Completer = leafParts(ssn, b, where, &errs)
				sc.SubCommands = append(sc.SubCommands, ssc)
			}
			c.SubCommands = append(c.SubCommands, sc)
		}
		cmds = append(cmds, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cmds, nil
}

// Tree builds the routing tree for the file.
func (f *File) Tree(b Bindings) (*slash.Tree, error) {
	cmds, err := f.Declarations(b)
	if err != nil {
		return nil, err
	}
	return slash.NewTree(cmds...)
}

func leafParts(n Node, b Bindings, where string, errs *[]error) ([]slash.Option, slash.Handler, slash.Completer) {
	h, err := b.handler(n.Handler)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", where, err))
	}
	c, err := b.completer(n.Completer)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", where, err))
	}
	var opts []slash.Option
	for _, on := range n.Options {
		o, err := option(on)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s [%s]: %w", where, on.Name, err))
			continue
		}
		opts = append(opts, o)
	}
	return opts, h, c
}

func option(on OptionNode) (slash.Option, error) {
	kind, err := slash.ParseKind(on.Kind)
	if err != nil {
		return slash.Option{}, err
	}
	o := slash.Option{
		Name:         on.Name,
		Description:  on.Description,
		Names:        on.Names,
		Descriptions: on.Descriptions,
		Kind:         kind,
		Optional:     on.Optional,
		Default:      on.Default,
		MinValue:     on.MinValue,
		MaxValue:     on.MaxValue,
		MinLength:    on.MinLength,
		MaxLength:    on.MaxLength,
		Autocomplete: on.Autocomplete,
	}
	if len(on.Choices) > 0 {
		choices := make([]slash.Choice, 0, len(on.Choices))
		for _, cn := range on.Choices {
			choices = append(choices, slash.Choice{Name: cn.Name, Value: cn.Value, Names: cn.Names})
		}
		o.Choices = slash.NewChoices(kind, choices...)
	}
	return o, nil
}
