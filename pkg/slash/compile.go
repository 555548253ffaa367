package slash

// CommandType is the top-level descriptor type. Only chat-input commands are
// produced.
const CommandType = 1

// CommandDescriptor is the registration payload of one top-level command.
// Encoding it with encoding/json yields the platform wire format.
type CommandDescriptor struct {
	Name                     string              `json:"name"`
	Description              string              `json:"description"`
	NameLocalizations        map[string]string   `json:"name_localizations,omitempty"`
	DescriptionLocalizations map[string]string   `json:"description_localizations,omitempty"`
	Type                     int                 `json:"type"`
	Options                  []*OptionDescriptor `json:"options,omitempty"`
}

// OptionDescriptor describes a subcommand group, a subcommand or a value
// option, depending on Type.
type OptionDescriptor struct {
	Name                     string              `json:"name"`
	Description              string              `json:"description"`
	NameLocalizations        map[string]string   `json:"name_localizations,omitempty"`
	DescriptionLocalizations map[string]string   `json:"description_localizations,omitempty"`
	Type                     OptionType          `json:"type"`
	Required                 bool                `json:"required,omitempty"`
	MinValue                 *float64            `json:"min_value,omitempty"`
	MaxValue                 *float64            `json:"max_value,omitempty"`
	MinLength                *int                `json:"min_length,omitempty"`
	MaxLength                *int                `json:"max_length,omitempty"`
	Autocomplete             bool                `json:"autocomplete,omitempty"`
	Choices                  []*ChoiceDescriptor `json:"choices,omitempty"`
	Options                  []*OptionDescriptor `json:"options,omitempty"`
}

// ChoiceDescriptor is one entry of an option's closed value set.
type ChoiceDescriptor struct {
	Name              string            `json:"name"`
	Value             any               `json:"value"`
	NameLocalizations map[string]string `json:"name_localizations,omitempty"`
}

// Compile turns a tree into registration descriptors, one per top-level
// command in declaration order. It has no side effects; compiling the same
// tree twice yields equal output.
func Compile(t *Tree) []*CommandDescriptor {
	out := make([]*CommandDescriptor, 0, len(t.roots))
	for _, id := range t.roots {
		n := t.nodes[id]
		cd := &CommandDescriptor{
			Name:                     n.name,
			Description:              n.description,
			NameLocalizations:        localizations(n.names),
			DescriptionLocalizations: localizations(n.descriptions),
			Type:                     CommandType,
		}
		if n.group {
			cd.Options = compileChildren(t, n)
		} else {
			cd.Options = compileOptions(n.options)
		}
		out = append(out, cd)
	}
	return out
}

// Descriptors is Compile(t).
func (t *Tree) Descriptors() []*CommandDescriptor { return Compile(t) }

func compileChildren(t *Tree, parent *node) []*OptionDescriptor {
	out := make([]*OptionDescriptor, 0, len(parent.children))
	for _, id := range parent.children {
		n := t.nodes[id]
		od := &OptionDescriptor{
			Name:                     n.name,
			Description:              n.description,
			NameLocalizations:        localizations(n.names),
			DescriptionLocalizations: localizations(n.descriptions),
		}
		if n.group {
			od.Type = OptionSubCommandGroup
			od.Options = compileChildren(t, n)
		} else {
			od.Type = OptionSubCommand
			od.Options = compileOptions(n.options)
		}
		out = append(out, od)
	}
	return out
}

func compileOptions(opts []*option) []*OptionDescriptor {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*OptionDescriptor, 0, len(opts))
	for _, o := range opts {
		od := &OptionDescriptor{
			Name:                     o.name,
			Description:              o.Description,
			NameLocalizations:        localizations(o.names),
			DescriptionLocalizations: localizations(o.descriptions),
			Type:                     WireType(o.Kind),
			Required:                 o.required(),
			Autocomplete:             o.Autocomplete,
		}
		switch o.Kind {
		case KindText:
			od.MinLength = copyPtr(o.MinLength)
			od.MaxLength = copyPtr(o.MaxLength)
		case KindInteger, KindFloat:
			od.MinValue = copyPtr(o.MinValue)
			od.MaxValue = copyPtr(o.MaxValue)
		}
		if o.Choices != nil {
			od.Choices = o.Choices.Descriptors()
		}
		out = append(out, od)
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
