package schemafile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slashroute/pkg/slash"
)

var noop = slash.HandlerFunc(func(context.Context, *slash.Invocation) error { return nil })

func bindAll() Bindings {
	return Bindings{Fallback: func(string) slash.Handler { return noop }}
}

func TestLoadYAML(t *testing.T) {
	f, err := Load("testdata/bot.yaml")
	require.NoError(t, err)

	tree, err := f.Tree(bindAll())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ping"}, {"manage", "priority"}, {"manage", "roles", "grant"}}, tree.Leaves())

	descs := tree.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, map[string]string{"pl-PL": "ping"}, descs[0].NameLocalizations)

	level := descs[1].Options[0].Options[0]
	require.Len(t, level.Choices, 3)
	assert.Equal(t, int64(2), level.Choices[1].Value)
	assert.Equal(t, map[string]string{"de-DE": "Mittel"}, level.Choices[1].NameLocalizations)

	r := slash.NewRouter(tree)
	rt, err := r.Route(&slash.Request{Name: "manage", Options: []slash.RequestOption{
		slash.Sub("priority", slash.Opt("level", slash.Integer(3))),
	}})
	require.NoError(t, err)
	c, ok := rt.Args.Choice("level")
	require.True(t, ok)
	assert.Equal(t, "High", c.Name)
}

func TestLoadTOML(t *testing.T) {
	f, err := Load("testdata/bot.toml")
	require.NoError(t, err)

	tree, err := f.Tree(Bindings{Handlers: map[string]slash.Handler{"roll": noop}})
	require.NoError(t, err)

	opts := tree.Descriptors()[0].Options
	require.Len(t, opts, 2)
	assert.False(t, opts[0].Required)
	assert.Equal(t, 2.0, *opts[0].MinValue)
	assert.Equal(t, "advantage", opts[1].Choices[0].Value)
}

func TestUnknownHandler(t *testing.T) {
	f, err := Load("testdata/bot.yaml")
	require.NoError(t, err)
	_, err = f.Declarations(Bindings{Handlers: map[string]slash.Handler{"ping": noop}})
	assert.ErrorContains(t, err, `manage priority: unknown handler "priority"`)
	assert.ErrorContains(t, err, `manage roles grant: unknown handler "grant"`)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "commands:\n  - name: a\n    descripton: typo\n", "descripton"},
		{"empty", "commands: []\n", "no commands"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := Parse([]byte("[[commands]]\nname = \"a\"\nbogus = 1\n"), FormatTOML)
	assert.ErrorContains(t, err, "bogus")
}

func TestDeclarationErrors(t *testing.T) {
	doc := `
commands:
  - name: a
    description: d
    subcommands:
      - name: b
        description: d
        subcommands:
          - name: c
            description: d
            handler: h
            subcommands:
              - name: d
                description: d
                handler: h
  - name: e
    description: d
    handler: h
    options:
      - name: x
        description: d
        kind: duration
`
	f, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	_, err = f.Declarations(bindAll())
	assert.ErrorContains(t, err, "a b c: commands nest at most three levels deep")
	assert.ErrorContains(t, err, `e [x]: unknown option kind "duration"`)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatTOML, DetectFormat("x/Bot.TOML"))
	assert.Equal(t, FormatYAML, DetectFormat("bot.yml"))
	assert.Equal(t, FormatYAML, DetectFormat("bot.json"))
}
