package middleware

import (
	"context"
	"errors"
	"testing"

	"slashroute/internal/command"
	"slashroute/internal/command/commandtest"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct{ perms []int64 }

func (s stub) Declaration() slash.Command {
	return slash.Command{Name: "stub", Description: "Stub"}
}
func (stub) Category() string           { return "test" }
func (s stub) UserPermissions() []int64 { return s.perms }

type counter struct{ calls int }

func (c *counter) Handle(context.Context, *slash.Invocation) error {
	c.calls++
	return nil
}

func invoke(mw slash.Middleware, h slash.Handler, data any) error {
	return mw(h).Handle(context.Background(), &slash.Invocation{Path: []string{"stub", "run"}, Data: data})
}

func TestGuildOnly(t *testing.T) {
	c, rec, _ := commandtest.Context(t, stub{})
	h := &counter{}

	require.NoError(t, invoke(WithGuildOnly(), h, c))
	assert.Equal(t, 1, h.calls)

	c.GuildID = ""
	require.NoError(t, invoke(WithGuildOnly(), h, c))
	assert.Equal(t, 1, h.calls)
	assert.True(t, rec.Last(t).Ephemeral)
	assert.Contains(t, rec.Last(t).Embed.Description, "guild")
}

func TestPassThroughWithoutContext(t *testing.T) {
	for name, mw := range map[string]slash.Middleware{
		"guild":       WithGuildOnly(),
		"disabled":    WithDisabledCheck(),
		"permissions": WithUserPermissionCheck(),
		"logger":      WithCommandLogger(),
	} {
		h := &counter{}
		require.NoError(t, invoke(mw, h, nil), name)
		assert.Equal(t, 1, h.calls, name)
	}
}

func TestDisabledCheck(t *testing.T) {
	c, rec, _ := commandtest.Context(t, stub{})
	h := &counter{}
	require.NoError(t, c.Storage.Disable(c.GuildID, "stub"))

	require.NoError(t, invoke(WithDisabledCheck(), h, c))
	assert.Zero(t, h.calls)
	assert.Contains(t, rec.Last(t).Embed.Description, "disabled")

	require.NoError(t, c.Storage.Enable(c.GuildID, "stub"))
	require.NoError(t, invoke(WithDisabledCheck(), h, c))
	assert.Equal(t, 1, h.calls)
}

func TestUserPermissionCheck(t *testing.T) {
	cases := []struct {
		name      string
		required  []int64
		have      int64
		developer bool
		allowed   bool
	}{
		{name: "no requirement", allowed: true},
		{name: "admin", required: []int64{discordgo.PermissionManageRoles}, have: discordgo.PermissionAdministrator, allowed: true},
		{name: "any of", required: []int64{discordgo.PermissionManageRoles, discordgo.PermissionBanMembers}, have: discordgo.PermissionBanMembers, allowed: true},
		{name: "developer", required: []int64{discordgo.PermissionManageRoles}, developer: true, allowed: true},
		{name: "missing", required: []int64{discordgo.PermissionManageRoles}, have: discordgo.PermissionSendMessages},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec, _ := commandtest.Context(t, stub{perms: tc.required})
			c.Permissions = tc.have
			c.Developer = tc.developer
			h := &counter{}

			require.NoError(t, invoke(WithUserPermissionCheck(), h, c))
			if tc.allowed {
				assert.Equal(t, 1, h.calls)
				assert.Empty(t, rec.Replies)
				return
			}
			assert.Zero(t, h.calls)
			assert.Contains(t, rec.Last(t).Embed.Description, "`Manage Roles`")
		})
	}
}

func TestCommandLoggerRecordsHistory(t *testing.T) {
	c, _, _ := commandtest.Context(t, stub{})
	boom := errors.New("boom")
	h := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { return boom })

	err := invoke(WithCommandLogger(), h, c)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, c.RequestID)

	history, err := c.Storage.History(c.GuildID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "/stub run", history[0].Command)
	assert.Equal(t, c.RequestID, history[0].RequestID)
	assert.Equal(t, "tester", history[0].Username)
	assert.Equal(t, "boom", history[0].Error)
}

func TestCommandLoggerKeepsRequestID(t *testing.T) {
	c, _, _ := commandtest.Context(t, stub{})
	c.RequestID = "fixed"
	require.NoError(t, invoke(WithCommandLogger(), &counter{}, c))
	assert.Equal(t, "fixed", c.RequestID)
}

func TestRecover(t *testing.T) {
	c, _, _ := commandtest.Context(t, stub{})
	h := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { panic("oops") })

	err := invoke(WithRecover(), h, c)
	require.Error(t, err)
	assert.Equal(t, "panic in /stub run: oops", err.Error())

	assert.NoError(t, invoke(WithRecover(), &counter{}, (*command.Context)(nil)))
}
