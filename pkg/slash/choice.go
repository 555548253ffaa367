package slash

import (
	"fmt"
	"math"
)

// Choice is one allowed value of a choice-restricted option.
type Choice struct {
	Name  string
	Value any
	// Names holds localized display names keyed by locale tag.
	Names map[string]string
}

// ChoiceSet is the closed, ordered set of values an option accepts. Lookups
// scan in declaration order and the first match wins.
type ChoiceSet struct {
	kind    Kind
	choices []Choice
	errs    []error
}

// NewChoices builds a choice set for kind. Values are normalised to the
// kind's Go type (int64 for integers, float64 for floats); a text choice
// without a value uses its display name. Invalid values are reported when
// the set is attached to a tree.
func NewChoices(kind Kind, choices ...Choice) *ChoiceSet {
	s := &ChoiceSet{kind: kind, choices: make([]Choice, 0, len(choices))}
	for i, c := range choices {
		if c.Value == nil && kind == KindText {
			c.Value = c.Name
		}
		v, ok := normalizeChoiceValue(kind, c.Value)
		if !ok {
			s.errs = append(s.errs, fmt.Errorf("choice %d (%q): value %v (%T) does not fit kind %s", i, c.Name, c.Value, c.Value, kind))
		} else {
			c.Value = v
		}
		if len(c.Names) > 0 {
			names := make(map[string]string, len(c.Names))
			for tag, text := range c.Names {
				names[tag] = text
			}
			c.Names = names
		}
		s.choices = append(s.choices, c)
	}
	return s
}

// StringChoices is NewChoices(KindText, ...).
func StringChoices(choices ...Choice) *ChoiceSet { return NewChoices(KindText, choices...) }

// IntChoices is NewChoices(KindInteger, ...).
func IntChoices(choices ...Choice) *ChoiceSet { return NewChoices(KindInteger, choices...) }

// FloatChoices is NewChoices(KindFloat, ...).
func FloatChoices(choices ...Choice) *ChoiceSet { return NewChoices(KindFloat, choices...) }

func (s *ChoiceSet) Kind() Kind { return s.kind }
func (s *ChoiceSet) Len() int   { return len(s.choices) }

// Choices returns a copy of the declared choices in order.
func (s *ChoiceSet) Choices() []Choice {
	return append([]Choice(nil), s.choices...)
}

// FromValue maps a raw value to the first declared choice carrying it.
func (s *ChoiceSet) FromValue(raw any) (Choice, error) {
	v, ok := normalizeChoiceValue(s.kind, raw)
	if !ok {
		return Choice{}, ErrBadOptionValue
	}
	for _, c := range s.choices {
		if c.Value == v {
			return c, nil
		}
	}
	return Choice{}, ErrBadOptionValue
}

// Descriptors emits the wire form of every choice in declaration order, with
// locale tags normalised.
func (s *ChoiceSet) Descriptors() []*ChoiceDescriptor {
	out := make([]*ChoiceDescriptor, 0, len(s.choices))
	for _, c := range s.choices {
		out = append(out, &ChoiceDescriptor{
			Name:              c.Name,
			Value:             c.Value,
			NameLocalizations: localizations(c.Names),
		})
	}
	return out
}

// decode checks the tag against the set's kind, then resolves the choice.
func (s *ChoiceSet) decode(v Value) (any, error) {
	raw, err := Decode(s.kind, v)
	if err != nil {
		return nil, err
	}
	return s.FromValue(raw)
}

func (s *ChoiceSet) validate(path string) []error {
	var errs []error
	for _, err := range s.errs {
		errs = append(errs, &SchemaError{Path: path, Reason: err.Error()})
	}
	switch s.kind {
	case KindText, KindInteger, KindFloat:
	default:
		errs = append(errs, &SchemaError{Path: path, Reason: fmt.Sprintf("choices are not supported for kind %s", s.kind)})
	}
	if len(s.choices) == 0 {
		errs = append(errs, &SchemaError{Path: path, Reason: "choice-restricted option declares no choices"})
	}
	if len(s.choices) > maxChoices {
		errs = append(errs, &SchemaError{Path: path, Reason: fmt.Sprintf("%d choices exceed the limit of %d", len(s.choices), maxChoices)})
	}
	seen := make(map[any]string, len(s.choices))
	for _, c := range s.choices {
		cpath := path + "#" + c.Name
		if err := checkText("choice name", c.Name, maxDescriptionLen); err != nil {
			errs = append(errs, &SchemaError{Path: cpath, Reason: err.Error()})
		}
		if c.Value != nil {
			if prev, dup := seen[c.Value]; dup {
				errs = append(errs, &SchemaError{Path: cpath, Reason: fmt.Sprintf("value %v already declared by %q", c.Value, prev)})
			} else {
				seen[c.Value] = c.Name
			}
		}
		errs = append(errs, checkLocales(cpath, c.Names)...)
	}
	return errs
}

func normalizeChoiceValue(kind Kind, v any) (any, bool) {
	switch kind {
	case KindText:
		s, ok := v.(string)
		return s, ok
	case KindInteger:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int8:
			return int64(n), true
		case int16:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint8:
			return int64(n), true
		case uint16:
			return int64(n), true
		case uint32:
			return int64(n), true
		case uint:
			return int64(n), uint64(n) <= math.MaxInt64
		case uint64:
			return int64(n), n <= math.MaxInt64
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, finite(n)
		case float32:
			return float64(n), finite(float64(n))
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return nil, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
