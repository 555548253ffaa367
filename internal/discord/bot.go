// Package discord connects the command router to a Discord gateway session:
// it converts interactions into routing requests, answers them, and keeps
// the registered slash commands in sync with the compiled tree.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"slashroute/internal/command"
	"slashroute/internal/config"
	"slashroute/internal/middleware"
	"slashroute/internal/storage"
	"slashroute/pkg/jobmgr"
	"slashroute/pkg/retrylimit"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Bot is a Discord bot
type Bot struct {
	cfg      *config.Config
	log      zerolog.Logger
	storage  *storage.Storage
	registry *command.Registry
	router   *slash.Router

	descriptors []*slash.CommandDescriptor
	limiter     *retrylimit.AdaptiveLimiter
	events      eventBus

	dg   *discordgo.Session
	ctx  context.Context
	jobs *jobmgr.Manager

	mu     sync.RWMutex
	syncer *Syncer
}

// New compiles the registry into a router. Schema errors surface here, before
// any connection is made.
func New(cfg *config.Config, st *storage.Storage, reg *command.Registry, log zerolog.Logger) (*Bot, error) {
	tree, err := reg.Tree()
	if err != nil {
		return nil, err
	}
	return &Bot{
		cfg:      cfg,
		log:      log,
		storage:  st,
		registry: reg,
		router: slash.NewRouter(tree,
			slash.WithMiddleware(middleware.WithRecover(), middleware.WithCommandLogger()),
		),
		descriptors: tree.Descriptors(),
		limiter:     retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		events:      newEventBus(),
		ctx:         context.Background(),
	}, nil
}

// Router returns the bot's command router.
func (b *Bot) Router() *slash.Router { return b.router }

// Run connects to Discord and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	b.dg = dg
	b.ctx = ctx
	b.jobs = jobmgr.New(ctx, b.reportJob)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.handleSystemEvents(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		b.log.Info().Msg("Shutdown signal received. Cleaning up...")
		return dg.Close()
	})
	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := b.jobs.Shutdown(shutdownCtx); serr != nil {
		b.log.Warn().Err(serr).Msg("Background jobs did not stop in time")
	}
	return err
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	syncer := NewSyncer(sessionAPI{s: s, appID: r.User.ID}, b.storage, b.descriptors, SyncOptions{
		Blacklisted: b.cfg.Blacklisted,
		Limiter:     b.limiter,
		Policy:      b.retryPolicy(),
		Logger:      b.log,
	})
	b.mu.Lock()
	b.syncer = syncer
	b.mu.Unlock()

	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID)
	}

	if !b.cfg.InitSlashCommands {
		b.log.Info().Msg("Registering slash commands skipped")
	} else if len(b.cfg.GuildIDs) == 0 {
		b.jobs.Replace(jobName(""), func(ctx context.Context) error {
			_, err := syncer.Sync(ctx, "")
			return err
		})
	} else {
		guilds := b.cfg.GuildIDs
		b.jobs.Replace("sync:all", func(ctx context.Context) error {
			return syncer.SyncAll(ctx, guilds, b.cfg.SyncWorkers)
		})
	}

	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.Blacklisted(guildID) {
		return false
	}
	b.log.Info().Str("guild", guildID).Msg("Leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
	return true
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.CommandType != discordgo.ChatApplicationCommand {
			return
		}
		b.dispatch(b.ctx, b.newContext(s, i, data.Name), Request(data))

	case discordgo.InteractionApplicationCommandAutocomplete:
		data := i.ApplicationCommandData()
		choices := b.complete(b.ctx, b.newContext(s, i, data.Name), Request(data))
		if err := RespondChoices(b.ctx, s, i.Interaction, choices); err != nil {
			b.log.Error().Err(err).Str("command", data.Name).Msg("Failed to send autocomplete choices")
		}
	}
}

// dispatch routes one request and reports failures to the user.
func (b *Bot) dispatch(ctx context.Context, cctx *command.Context, req *slash.Request) {
	err := b.router.Dispatch(ctx, req, cctx)
	if err == nil {
		return
	}
	var de *slash.DispatchError
	if errors.As(err, &de) {
		cctx.Log.Warn().Err(err).Str("state", de.State.String()).Msg("Request rejected")
	} else {
		cctx.Log.Error().Err(err).Str("command", req.Name).Msg("Command failed")
	}
	if rerr := cctx.Notice(ctx, ErrorMessage(err)); rerr != nil {
		cctx.Log.Error().Err(rerr).Msg("Failed to report error")
	}
}

// complete never fails: errors yield an empty suggestion list.
func (b *Bot) complete(ctx context.Context, cctx *command.Context, req *slash.Request) []slash.Choice {
	choices, err := b.router.Complete(ctx, req, cctx)
	if err != nil {
		cctx.Log.Debug().Err(err).Str("command", req.Name).Msg("Autocomplete failed")
		return nil
	}
	return choices
}

func (b *Bot) newContext(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *command.Context {
	u := i.User
	var perms int64
	if i.Member != nil {
		perms = i.Member.Permissions
		if i.Member.User != nil {
			u = i.Member.User
		}
	}
	cctx := &command.Context{
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		Permissions: perms,
		Locale:      string(i.Locale),
		Storage:     b.storage,
		Control:     b,
		Log:         b.log,
		Event:       i,
	}
	if s != nil {
		cctx.Responder = &responder{s: s, i: i.Interaction}
	}
	if u != nil {
		cctx.User = user(u)
		cctx.Developer = b.cfg.IsDeveloper(u.ID)
	}
	if cmd, ok := b.registry.Lookup(name); ok {
		cctx.Command = cmd
	}
	return cctx
}

// RefreshCommands queues a registration sync. Without configured guilds the
// bot registers globally, so every refresh targets the global scope.
func (b *Bot) RefreshCommands(guildID string) {
	if len(b.cfg.GuildIDs) == 0 {
		guildID = ""
	}
	if !b.events.publish(SystemEvent{Type: SystemEventRefreshCommands, GuildID: guildID}) {
		b.log.Warn().Str("guild", guildID).Msg("System event queue full, refresh dropped")
	}
}

func (b *Bot) SyncStatus() string {
	if b.jobs == nil {
		return "No jobs are running."
	}
	return b.jobs.Status()
}

func (b *Bot) Latency() time.Duration {
	if b.dg == nil {
		return 0
	}
	return b.dg.HeartbeatLatency()
}

func (b *Bot) handleSystemEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.events:
			if ev.Type != SystemEventRefreshCommands {
				continue
			}
			b.mu.RLock()
			syncer := b.syncer
			b.mu.RUnlock()
			if syncer == nil {
				b.log.Warn().Str("guild", ev.GuildID).Msg("Session not ready, refresh skipped")
				continue
			}
			b.log.Info().Str("guild", ev.GuildID).Msg("Refreshing commands")
			b.jobs.Replace(jobName(ev.GuildID), func(ctx context.Context) error {
				_, err := syncer.Sync(ctx, ev.GuildID)
				return err
			})
		}
	}
}

func (b *Bot) reportJob(ev jobmgr.Event) {
	switch ev.State {
	case jobmgr.Failed:
		b.log.Error().Err(ev.Err).Str("job", ev.Job).Msg("Job failed")
	case jobmgr.Cancelled:
		b.log.Info().Str("job", ev.Job).Msg("Job cancelled")
	default:
		b.log.Debug().Str("job", ev.Job).Str("state", string(ev.State)).Msg("Job")
	}
}

func (b *Bot) retryPolicy() retrylimit.Policy {
	p := retrylimit.DefaultPolicy()
	p.Logger = b.log
	return p
}

func jobName(guildID string) string {
	if guildID == "" {
		return "sync:" + storage.GlobalScope
	}
	return "sync:" + guildID
}

var _ command.Control = (*Bot)(nil)
