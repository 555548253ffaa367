package slash

// Args is the decoded argument record of one invocation. Absent optional
// options are not present; default-flagged options always are.
type Args struct {
	values map[string]any
	order  []string
}

func (a *Args) set(name string, v any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[name]; !ok {
		a.order = append(a.order, name)
	}
	a.values[name] = v
}

// NewArgs builds a record from name/value pairs; intended for handler tests.
func NewArgs(pairs ...any) Args {
	var a Args
	for i := 0; i+1 < len(pairs); i += 2 {
		if name, ok := pairs[i].(string); ok {
			a.set(name, pairs[i+1])
		}
	}
	return a
}

// Names returns the present option names in declaration order.
func (a Args) Names() []string { return append([]string(nil), a.order...) }

// Len returns the number of present options.
func (a Args) Len() int { return len(a.order) }

// Has reports whether the option carried a value.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Get returns the decoded value of an option.
func (a Args) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Map returns a copy of the record.
func (a Args) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

func (a Args) String(name string) string {
	v, _ := a.values[name].(string)
	return v
}

func (a Args) Int(name string) int64 {
	v, _ := a.values[name].(int64)
	return v
}

func (a Args) Float(name string) float64 {
	v, _ := a.values[name].(float64)
	return v
}

func (a Args) Bool(name string) bool {
	v, _ := a.values[name].(bool)
	return v
}

func (a Args) User(name string) *User {
	v, _ := a.values[name].(*User)
	return v
}

func (a Args) Member(name string) *Member {
	v, _ := a.values[name].(*Member)
	return v
}

func (a Args) Role(name string) *Role {
	v, _ := a.values[name].(*Role)
	return v
}

func (a Args) Channel(name string) *Channel {
	v, _ := a.values[name].(*Channel)
	return v
}

func (a Args) Attachment(name string) *Attachment {
	v, _ := a.values[name].(*Attachment)
	return v
}

func (a Args) Mentionable(name string) Mentionable {
	v, _ := a.values[name].(Mentionable)
	return v
}

// ID returns the identifier decoded by one of the *ID kinds.
func (a Args) ID(name string) Snowflake {
	v, _ := a.values[name].(Snowflake)
	return v
}

// Choice returns the matched choice of a choice-restricted option.
func (a Args) Choice(name string) (Choice, bool) {
	v, ok := a.values[name].(Choice)
	return v, ok
}
