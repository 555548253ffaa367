package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"slashroute/internal/command"
	"slashroute/internal/command/commandtest"
	"slashroute/internal/config"
	"slashroute/pkg/jobmgr"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var errEcho = errors.New("echo exploded")

type echoCommand struct{ name string }

func (c echoCommand) Category() string          { return "Test" }
func (c echoCommand) UserPermissions() []int64 { return nil }

func (c echoCommand) Declaration() slash.Command {
	return slash.Command{
		Name:        c.name,
		Description: "Echo text back",
		Options: []slash.Option{
			{Ident: "text", Description: "Text to echo", Kind: slash.KindText, Autocomplete: true},
		},
		Handler: slash.HandlerFunc(func(ctx context.Context, inv *slash.Invocation) error {
			cctx, err := command.From(inv)
			if err != nil {
				return err
			}
			text := inv.Args.String("text")
			if text == "fail" {
				return errEcho
			}
			return cctx.Reply(ctx, &discordgo.MessageEmbed{Description: text})
		}),
		Completer: slash.CompleterFunc(func(_ context.Context, c *slash.Completion) ([]slash.Choice, error) {
			if c.Partial.String == "boom" {
				return nil, errEcho
			}
			return []slash.Choice{{Name: c.Partial.String + "!", Value: c.Partial.String + "!"}}, nil
		}),
	}
}

func newTestBot(t *testing.T, cfg *config.Config) *Bot {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{SyncWorkers: 1}
	}
	reg := command.NewRegistry()
	reg.Register(echoCommand{name: "echo"})
	b, err := New(cfg, commandtest.Storage(t), reg, zerolog.Nop())
	require.NoError(t, err)
	return b
}

func interaction(userID string, perms int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		GuildID:   "100",
		ChannelID: "200",
		Locale:    discordgo.German,
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: userID, Username: "tester"},
			Permissions: perms,
		},
	}}
}

func TestNewRejectsInvalidSchema(t *testing.T) {
	reg := command.NewRegistry()
	reg.Register(echoCommand{name: "Not Valid"})
	_, err := New(&config.Config{}, commandtest.Storage(t), reg, zerolog.Nop())
	var se *slash.SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestNewContext(t *testing.T) {
	b := newTestBot(t, &config.Config{DeveloperID: "300"})

	cctx := b.newContext(nil, interaction("300", discordgo.PermissionManageGuild), "echo")
	assert.Equal(t, "100", cctx.GuildID)
	assert.Equal(t, "200", cctx.ChannelID)
	assert.Equal(t, "de", cctx.Locale)
	assert.Equal(t, "300", cctx.UserID())
	assert.True(t, cctx.Developer)
	assert.Equal(t, int64(discordgo.PermissionManageGuild), cctx.Permissions)
	assert.Nil(t, cctx.Responder)
	require.NotNil(t, cctx.Command)
	assert.Equal(t, "echo", cctx.Command.Declaration().Name)

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "400"}}}
	cctx = b.newContext(nil, dm, "gone")
	assert.Equal(t, "400", cctx.UserID())
	assert.False(t, cctx.Developer)
	assert.Nil(t, cctx.Command)
}

func TestDispatchReplies(t *testing.T) {
	b := newTestBot(t, nil)
	cctx := b.newContext(nil, interaction("300", 0), "echo")
	rec := &commandtest.Recorder{}
	cctx.Responder = rec

	b.dispatch(context.Background(), cctx, &slash.Request{Name: "echo", Options: []slash.RequestOption{
		{Name: "text", Value: slash.String("hello")},
	}})
	reply := rec.Last(t)
	assert.False(t, reply.Ephemeral)
	assert.Equal(t, "hello", reply.Embed.Description)
	assert.Equal(t, command.EmbedColor, reply.Embed.Color)

	history, err := cctx.Storage.History("100")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "/echo", history[0].Command)
}

func TestDispatchReportsFailures(t *testing.T) {
	tests := []struct {
		name string
		req  *slash.Request
		want string
	}{
		{
			name: "unknown command",
			req:  &slash.Request{Name: "gone"},
			want: "This command is not available anymore. It may take a minute for the command list to refresh.",
		},
		{
			name: "missing option",
			req:  &slash.Request{Name: "echo"},
			want: "`/echo` needs the `text` option.",
		},
		{
			name: "wrong type",
			req:  &slash.Request{Name: "echo", Options: []slash.RequestOption{{Name: "text", Value: slash.Integer(4)}}},
			want: "The `text` option of `/echo` has the wrong type. The command list may be outdated.",
		},
		{
			name: "handler error",
			req:  &slash.Request{Name: "echo", Options: []slash.RequestOption{{Name: "text", Value: slash.String("fail")}}},
			want: "Error running command: echo exploded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBot(t, nil)
			cctx := b.newContext(nil, interaction("300", 0), tt.req.Name)
			rec := &commandtest.Recorder{}
			cctx.Responder = rec

			b.dispatch(context.Background(), cctx, tt.req)
			reply := rec.Last(t)
			assert.True(t, reply.Ephemeral)
			assert.Equal(t, tt.want, reply.Embed.Description)
		})
	}
}

func TestCompleteSwallowsErrors(t *testing.T) {
	b := newTestBot(t, nil)
	cctx := b.newContext(nil, interaction("300", 0), "echo")
	focused := func(s string) *slash.Request {
		return &slash.Request{Name: "echo", Options: []slash.RequestOption{
			{Name: "text", Value: slash.String(s), Focused: true},
		}}
	}

	got := b.complete(context.Background(), cctx, focused("hi"))
	assert.Equal(t, []slash.Choice{{Name: "hi!", Value: "hi!"}}, got)
	assert.Nil(t, b.complete(context.Background(), cctx, focused("boom")))
	assert.Nil(t, b.complete(context.Background(), cctx, &slash.Request{Name: "echo"}))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&slash.DispatchError{State: slash.AtCommand, Path: []string{"manage", "commands"}, Err: slash.ErrUnrecognizedCommand},
			"`/manage commands` is not a complete command. It may take a minute for the command list to refresh.",
		},
		{
			&slash.DispatchError{State: slash.AtSubSubCommand, Path: []string{"manage", "commands", "disable"}, Option: "command", Err: slash.ErrMissingOption},
			"`/manage commands disable` needs the `command` option.",
		},
		{
			&slash.DispatchError{State: slash.AtCommand, Path: []string{"roll"}, Option: "mode", Err: slash.ErrBadOptionValue},
			"The value given for `mode` is not allowed in `/roll`.",
		},
		{errors.New("disk full"), "Error running command: disk full"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err))
	}
}

func TestRefreshCommandsScope(t *testing.T) {
	global := newTestBot(t, nil)
	global.RefreshCommands("100")
	assert.Equal(t, SystemEvent{Type: SystemEventRefreshCommands, GuildID: ""}, <-global.events)

	scoped := newTestBot(t, &config.Config{GuildIDs: []string{"100"}, SyncWorkers: 1})
	scoped.RefreshCommands("100")
	assert.Equal(t, SystemEvent{Type: SystemEventRefreshCommands, GuildID: "100"}, <-scoped.events)

	for range cap(scoped.events) {
		scoped.RefreshCommands("100")
	}
	assert.False(t, scoped.events.publish(SystemEvent{Type: SystemEventRefreshCommands}))
}

func TestHandleSystemEventsSyncs(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newTestBot(t, &config.Config{GuildIDs: []string{"100"}, SyncWorkers: 1})
	api := newFakeAPI()
	b.syncer = NewSyncer(api, b.storage, b.descriptors, fastSync())

	ctx, cancel := context.WithCancel(context.Background())
	b.jobs = jobmgr.New(ctx, nil)
	done := make(chan error, 1)
	go func() { done <- b.handleSystemEvents(ctx) }()

	b.RefreshCommands("100")
	assert.Eventually(t, func() bool {
		return len(api.names("100")) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, b.jobs.Shutdown(context.Background()))
	assert.Equal(t, "No jobs are running.", b.SyncStatus())
}

func TestSyncStatusBeforeRun(t *testing.T) {
	b := newTestBot(t, nil)
	assert.Equal(t, "No jobs are running.", b.SyncStatus())
	assert.Zero(t, b.Latency())
}
