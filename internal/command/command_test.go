package command

import (
	"context"
	"slices"
	"testing"

	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	decl slash.Command
}

func (s stub) Declaration() slash.Command { return s.decl }
func (stub) Category() string             { return "test" }
func (stub) UserPermissions() []int64     { return nil }

func tagger(tag string, trail *[]string) slash.Middleware {
	return func(next slash.Handler) slash.Handler {
		return slash.HandlerFunc(func(ctx context.Context, inv *slash.Invocation) error {
			*trail = append(*trail, tag)
			return next.Handle(ctx, inv)
		})
	}
}

func TestRegistryWrapsEveryLeaf(t *testing.T) {
	var trail []string
	leaf := slash.HandlerFunc(func(context.Context, *slash.Invocation) error {
		trail = append(trail, "leaf")
		return nil
	})

	r := NewRegistry()
	r.Register(stub{slash.Command{Ident: "Ping", Description: "Ping", Handler: leaf}}, tagger("a", &trail), tagger("b", &trail))
	r.Register(stub{slash.Command{Name: "admin", Description: "Admin", SubCommands: []slash.SubCommand{
		{Name: "ban", Description: "Ban", Handler: leaf},
		{Name: "role", Description: "Roles", SubCommands: []slash.SubSubCommand{
			{Name: "grant", Description: "Grant", Handler: leaf},
		}},
	}}}, tagger("x", &trail))

	tree, err := r.Tree()
	require.NoError(t, err)
	router := slash.NewRouter(tree)

	cases := []struct {
		req  *slash.Request
		want []string
	}{
		{&slash.Request{Name: "ping"}, []string{"a", "b", "leaf"}},
		{&slash.Request{Name: "admin", Options: []slash.RequestOption{slash.Sub("ban")}}, []string{"x", "leaf"}},
		{&slash.Request{Name: "admin", Options: []slash.RequestOption{slash.Group("role", slash.Sub("grant"))}}, []string{"x", "leaf"}},
	}
	for _, tc := range cases {
		trail = nil
		require.NoError(t, router.Dispatch(context.Background(), tc.req, nil))
		assert.Equal(t, tc.want, trail, tc.req.Name)
	}
}

func TestRegistryLookupAndReplace(t *testing.T) {
	noop := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { return nil })
	r := NewRegistry()
	r.Register(stub{slash.Command{Name: "roll", Description: "one", Handler: noop}})
	r.Register(stub{slash.Command{Ident: "Ping", Description: "Ping", Handler: noop}})
	r.Register(stub{slash.Command{Name: "roll", Description: "two", Handler: noop}})

	assert.Equal(t, []string{"ping", "roll"}, r.Names())
	require.Len(t, r.All(), 2)

	cmd, ok := r.Lookup("roll")
	require.True(t, ok)
	assert.Equal(t, "two", cmd.Declaration().Description)

	_, ok = r.Lookup("Ping")
	assert.False(t, ok, "lookup uses wire names")
}

func TestRegistryDoesNotMutateDeclarations(t *testing.T) {
	calls := 0
	leaf := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { calls++; return nil })
	decl := slash.Command{Name: "admin", Description: "Admin", SubCommands: []slash.SubCommand{
		{Name: "ban", Description: "Ban", Handler: leaf},
	}}
	var trail []string
	r := NewRegistry()
	r.Register(stub{decl}, tagger("x", &trail))
	_ = r.Declarations()
	_ = r.Declarations()

	require.NoError(t, decl.SubCommands[0].Handler.Handle(context.Background(), &slash.Invocation{}))
	assert.Empty(t, trail)
	assert.Equal(t, 1, calls)
}

func TestFrom(t *testing.T) {
	c := &Context{GuildID: "1"}
	got, err := From(&slash.Invocation{Data: c})
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = From(&slash.Invocation{Data: "nope"})
	assert.ErrorIs(t, err, ErrNoContext)
	_, err = From(&slash.Invocation{})
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestCompareCategories(t *testing.T) {
	cats := []string{"zzz", "⚙️ Settings", "aaa", "🕯️ Information", "🎲 Gameplay"}
	slices.SortFunc(cats, CompareCategories)
	assert.Equal(t, []string{"🕯️ Information", "🎲 Gameplay", "⚙️ Settings", "aaa", "zzz"}, cats)
}

type permStub struct{ perms []int64 }

func (permStub) Declaration() slash.Command  { return slash.Command{Name: "x"} }
func (permStub) Category() string            { return "" }
func (p permStub) UserPermissions() []int64 { return p.perms }

func TestPermitted(t *testing.T) {
	open := permStub{}
	guarded := permStub{perms: []int64{discordgo.PermissionManageGuild, discordgo.PermissionBanMembers}}

	assert.True(t, Permitted(open, 0, false))
	assert.False(t, Permitted(guarded, discordgo.PermissionSendMessages, false))
	assert.True(t, Permitted(guarded, discordgo.PermissionBanMembers, false))
	assert.True(t, Permitted(guarded, discordgo.PermissionAdministrator, false))
	assert.True(t, Permitted(guarded, 0, true))
}
