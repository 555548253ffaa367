package slash

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	got := Compile(fixtureTree(t, noop))

	want := []*CommandDescriptor{
		{
			Name:              "ping",
			Description:       "Replies with the message",
			NameLocalizations: map[string]string{"pl-PL": "ping"},
			Type:              CommandType,
			Options: []*OptionDescriptor{
				{Name: "msg", Description: "Message", Type: OptionString, Required: true},
			},
		},
		{
			Name:        "admin",
			Description: "Admin tools",
			Type:        CommandType,
			Options: []*OptionDescriptor{
				{Name: "ban", Description: "Ban a member", Type: OptionSubCommand, Options: []*OptionDescriptor{
					{Name: "who", Description: "Target", Type: OptionUser, Required: true},
					{Name: "days", Description: "Days of messages to delete", Type: OptionInteger, MinValue: ptr(0.0), MaxValue: ptr(7.0)},
					{Name: "reason", Description: "Reason", Type: OptionString, MaxLength: ptr(200)},
				}},
				{Name: "role", Description: "Role tools", Type: OptionSubCommandGroup, Options: []*OptionDescriptor{
					{Name: "grant", Description: "Grant a role", Type: OptionSubCommand, Options: []*OptionDescriptor{
						{Name: "role", Description: "Role", Type: OptionRole, Required: true},
						{Name: "level", Description: "Level", Type: OptionInteger, Required: true, Choices: []*ChoiceDescriptor{
							{Name: "Low", Value: int64(1)},
							{Name: "Medium", Value: int64(2), NameLocalizations: map[string]string{"pl-PL": "Średni"}},
							{Name: "High", Value: int64(3)},
						}},
					}},
				}},
			},
		},
		{
			Name:        "find",
			Description: "Searches",
			Type:        CommandType,
			Options: []*OptionDescriptor{
				{Name: "query", Description: "Query", Type: OptionString, Required: true, Autocomplete: true},
				{Name: "limit", Description: "Limit", Type: OptionInteger},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compile() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileIdempotent(t *testing.T) {
	tree := fixtureTree(t, noop)
	first := Compile(tree)
	second := tree.Descriptors()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second compile differs:\n%s", diff)
	}

	// Outputs must not alias each other.
	first[0].NameLocalizations["pl-PL"] = "changed"
	assert.Equal(t, "ping", Compile(tree)[0].NameLocalizations["pl-PL"])
}

func TestCompileConstraintsOnlyOnMatchingKinds(t *testing.T) {
	tree := MustTree(leaf("c",
		Option{Ident: "flag", Description: "d", Kind: KindBoolean, MinValue: ptr(1.0), MaxLength: ptr(3)},
		Option{Ident: "name", Description: "d", Kind: KindText, MinValue: ptr(1.0), MinLength: ptr(2)},
		Option{Ident: "size", Description: "d", Kind: KindFloat, MinValue: ptr(0.5), MaxLength: ptr(3)},
	))
	opts := Compile(tree)[0].Options
	require.Len(t, opts, 3)

	assert.Nil(t, opts[0].MinValue)
	assert.Nil(t, opts[0].MaxLength)

	assert.Nil(t, opts[1].MinValue)
	assert.Equal(t, 2, *opts[1].MinLength)

	assert.Equal(t, 0.5, *opts[2].MinValue)
	assert.Nil(t, opts[2].MaxLength)
}

func TestCompiledJSONHasNoUnderscoreLocales(t *testing.T) {
	tree := MustTree(Command{
		Ident:        "hello",
		Description:  "Greets",
		Names:        map[string]string{"pl_PL": "czesc", "pt_BR": "ola"},
		Descriptions: map[string]string{"pl_PL": "Wita"},
		Handler:      noop,
		Options: []Option{{
			Ident:        "tone",
			Description:  "Tone",
			Names:        map[string]string{"es_ES": "tono"},
			Kind:         KindText,
			Choices:      StringChoices(Choice{Name: "warm", Names: map[string]string{"zh_CN": "温暖"}}),
			Descriptions: map[string]string{"es_ES": "Tono"},
		}},
	})
	raw, err := json.Marshal(Compile(tree))
	require.NoError(t, err)
	out := string(raw)

	for _, tag := range []string{"pl-PL", "pt-BR", "es-ES", "zh-CN"} {
		assert.Contains(t, out, `"`+tag+`"`)
		assert.NotContains(t, out, `"`+strings.ReplaceAll(tag, "-", "_")+`"`)
	}
	assert.Contains(t, out, `"value":"warm"`)
	assert.Contains(t, out, `"type":1`)
}
