package discord

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"slashroute/internal/command/commandtest"
	"slashroute/pkg/retrylimit"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpErr int

func (e httpErr) Error() string   { return fmt.Sprintf("http %d", int(e)) }
func (e httpErr) StatusCode() int { return int(e) }

type fakeAPI struct {
	mu       sync.Mutex
	scopes   map[string][]*discordgo.ApplicationCommand
	creates  []string
	deletes  []string
	failures map[string][]error
	nextID   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{scopes: map[string][]*discordgo.ApplicationCommand{}, failures: map[string][]error{}}
}

func (f *fakeAPI) fail(key string) error {
	if errs := f.failures[key]; len(errs) > 0 {
		f.failures[key] = errs[1:]
		return errs[0]
	}
	return nil
}

func (f *fakeAPI) Commands(_ context.Context, guildID string) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list:" + guildID); err != nil {
		return nil, err
	}
	return slices.Clone(f.scopes[guildID]), nil
}

func (f *fakeAPI) Create(_ context.Context, guildID string, cmd *discordgo.ApplicationCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create:" + cmd.Name); err != nil {
		return err
	}
	f.creates = append(f.creates, guildID+"/"+cmd.Name)
	cmds := slices.DeleteFunc(f.scopes[guildID], func(c *discordgo.ApplicationCommand) bool { return c.Name == cmd.Name })
	f.nextID++
	stored := *cmd
	stored.ID = fmt.Sprint(f.nextID)
	f.scopes[guildID] = append(cmds, &stored)
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, guildID, cmdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes[guildID] = slices.DeleteFunc(f.scopes[guildID], func(c *discordgo.ApplicationCommand) bool {
		if c.ID == cmdID {
			f.deletes = append(f.deletes, guildID+"/"+c.Name)
			return true
		}
		return false
	})
	return nil
}

func (f *fakeAPI) names(guildID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.scopes[guildID] {
		out = append(out, c.Name)
	}
	slices.Sort(out)
	return out
}

func syncTree(t *testing.T) []*slash.CommandDescriptor {
	noop := slash.HandlerFunc(func(context.Context, *slash.Invocation) error { return nil })
	tree, err := slash.NewTree(
		slash.Command{Name: "ping", Description: "Ping", Handler: noop},
		slash.Command{Name: "roll", Description: "Roll", Handler: noop, Options: []slash.Option{
			{Ident: "formula", Description: "Dice", Kind: slash.KindText},
		}},
	)
	require.NoError(t, err)
	return tree.Descriptors()
}

func fastSync() SyncOptions {
	p := retrylimit.DefaultPolicy()
	p.InitialDelay = time.Millisecond
	p.MaxDelay = time.Millisecond
	p.RateLimitDelay = time.Millisecond
	p.Jitter = false
	return SyncOptions{Policy: p}
}

func TestSyncCreatesThenSkipsUnchanged(t *testing.T) {
	api := newFakeAPI()
	st := commandtest.Storage(t)
	s := NewSyncer(api, st, syncTree(t), fastSync())

	res, err := s.Sync(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "roll"}, res.Created)
	assert.Equal(t, []string{"ping", "roll"}, api.names("1"))

	res, err = s.Sync(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"ping", "roll"}, res.Unchanged)

	hashes, err := st.CommandHashes("1")
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
}

func TestSyncRecreatesCommandsDeletedRemotely(t *testing.T) {
	api := newFakeAPI()
	s := NewSyncer(api, commandtest.Storage(t), syncTree(t), fastSync())
	_, err := s.Sync(context.Background(), "1")
	require.NoError(t, err)

	api.scopes["1"] = api.scopes["1"][:1]
	res, err := s.Sync(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	assert.Equal(t, []string{"ping", "roll"}, api.names("1"))
}

func TestSyncDeletesObsoleteAndDisabled(t *testing.T) {
	api := newFakeAPI()
	api.scopes["1"] = []*discordgo.ApplicationCommand{{ID: "old", Name: "purge"}}
	st := commandtest.Storage(t)
	require.NoError(t, st.Disable("1", "roll"))

	s := NewSyncer(api, st, syncTree(t), fastSync())
	res, err := s.Sync(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"purge"}, res.Deleted)
	assert.Equal(t, []string{"ping"}, api.names("1"))

	require.NoError(t, st.Enable("1", "roll"))
	_, err = s.Sync(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "roll"}, api.names("1"))
}

func TestSyncBlacklistedGuildIsEmptied(t *testing.T) {
	api := newFakeAPI()
	opts := fastSync()
	opts.Blacklisted = func(id string) bool { return id == "666" }
	s := NewSyncer(api, commandtest.Storage(t), syncTree(t), opts)

	_, err := s.Sync(context.Background(), "666")
	require.NoError(t, err)
	assert.Empty(t, api.names("666"))

	// The global scope ignores the blacklist.
	_, err = s.Sync(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "roll"}, api.names(""))
}

func TestSyncRetriesAndReportsFailures(t *testing.T) {
	api := newFakeAPI()
	api.failures["create:ping"] = []error{httpErr(http.StatusBadGateway), httpErr(http.StatusTooManyRequests)}
	api.failures["create:roll"] = []error{httpErr(http.StatusBadRequest)}
	st := commandtest.Storage(t)
	s := NewSyncer(api, st, syncTree(t), fastSync())

	res, err := s.Sync(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create roll")
	assert.Equal(t, []string{"ping"}, res.Created)

	hashes, err := st.CommandHashes("1")
	require.NoError(t, err)
	assert.Contains(t, hashes, "ping")
	assert.NotContains(t, hashes, "roll")
}

func TestSyncAll(t *testing.T) {
	api := newFakeAPI()
	s := NewSyncer(api, commandtest.Storage(t), syncTree(t), fastSync())

	require.NoError(t, s.SyncAll(context.Background(), []string{"2", "1", "2", "3"}, 2))
	for _, g := range []string{"1", "2", "3"} {
		assert.Equal(t, []string{"ping", "roll"}, api.names(g), g)
	}
	assert.Len(t, api.creates, 6)
}

func TestSyncListFailure(t *testing.T) {
	api := newFakeAPI()
	api.failures["list:1"] = []error{httpErr(http.StatusForbidden)}
	s := NewSyncer(api, commandtest.Storage(t), syncTree(t), fastSync())

	_, err := s.Sync(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, retrylimit.StatusOf(err))
}
