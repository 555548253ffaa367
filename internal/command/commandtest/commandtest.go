// Package commandtest provides fakes for exercising command handlers without
// a Discord session.
package commandtest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"slashroute/datastore"
	"slashroute/internal/command"
	"slashroute/internal/storage"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Reply is one recorded response.
type Reply struct {
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
}

// Recorder is a command.Responder that keeps every reply.
type Recorder struct {
	mu      sync.Mutex
	Replies []Reply
}

func (r *Recorder) Reply(_ context.Context, embed *discordgo.MessageEmbed, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Replies = append(r.Replies, Reply{embed, ephemeral})
	return nil
}

// Last returns the most recent reply, failing the test when there is none.
func (r *Recorder) Last(t testing.TB) Reply {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Replies) == 0 {
		t.Fatal("no reply was sent")
	}
	return r.Replies[len(r.Replies)-1]
}

// Control records refresh requests.
type Control struct {
	mu        sync.Mutex
	Refreshed []string
	Status    string
}

func (c *Control) RefreshCommands(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Refreshed = append(c.Refreshed, guildID)
}

func (c *Control) SyncStatus() string      { return c.Status }
func (c *Control) Latency() time.Duration { return 42 * time.Millisecond }

// Storage opens a storage backed by a temporary datastore file.
func Storage(t testing.TB) *storage.Storage {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.Open(cfg)
	if err != nil {
		t.Fatalf("open datastore: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return storage.New(ds)
}

// Context returns a guild context wired to fresh fakes.
func Context(t testing.TB, cmd command.Command) (*command.Context, *Recorder, *Control) {
	t.Helper()
	rec := &Recorder{}
	ctl := &Control{Status: "No jobs are running."}
	return &command.Context{
		Command:     cmd,
		GuildID:     "100",
		ChannelID:   "200",
		User:        &slash.User{ID: "300", Username: "tester"},
		Permissions: discordgo.PermissionAdministrator,
		Storage:     Storage(t),
		Responder:   rec,
		Control:     ctl,
		Log:         zerolog.Nop(),
	}, rec, ctl
}

// Dispatch routes req through a tree built from cmds with c as payload.
func Dispatch(t testing.TB, c *command.Context, req *slash.Request, cmds ...command.Command) error {
	t.Helper()
	reg := command.NewRegistry()
	for _, cmd := range cmds {
		reg.Register(cmd)
	}
	tree, err := reg.Tree()
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	return slash.NewRouter(tree).Dispatch(context.Background(), req, c)
}
