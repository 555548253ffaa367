package discord

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"slashroute/internal/storage"
	"slashroute/pkg/retrylimit"
	"slashroute/pkg/slash"
	"slashroute/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// CommandAPI is the part of the REST API that registration uses. An empty
// guildID addresses the global scope.
type CommandAPI interface {
	Commands(ctx context.Context, guildID string) ([]*discordgo.ApplicationCommand, error)
	Create(ctx context.Context, guildID string, cmd *discordgo.ApplicationCommand) error
	Delete(ctx context.Context, guildID, cmdID string) error
}

type sessionAPI struct {
	s     *discordgo.Session
	appID string
}

func (a sessionAPI) Commands(ctx context.Context, guildID string) ([]*discordgo.ApplicationCommand, error) {
	cmds, err := a.s.ApplicationCommands(a.appID, guildID, discordgo.WithContext(ctx))
	return cmds, apiErr(err)
}

// Create upserts cmd by name.
func (a sessionAPI) Create(ctx context.Context, guildID string, cmd *discordgo.ApplicationCommand) error {
	_, err := a.s.ApplicationCommandCreate(a.appID, guildID, cmd, discordgo.WithContext(ctx))
	return apiErr(err)
}

func (a sessionAPI) Delete(ctx context.Context, guildID, cmdID string) error {
	return apiErr(a.s.ApplicationCommandDelete(a.appID, guildID, cmdID, discordgo.WithContext(ctx)))
}

// restError exposes the HTTP status of a REST failure to the retry policy.
type restError struct {
	*discordgo.RESTError
}

func (e restError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

func (e restError) Unwrap() error { return e.RESTError }

func apiErr(err error) error {
	var re *discordgo.RESTError
	if errors.As(err, &re) {
		return restError{re}
	}
	return err
}

// SyncOptions configures a Syncer.
type SyncOptions struct {
	// Blacklisted guilds get every command removed.
	Blacklisted func(guildID string) bool
	Limiter     *retrylimit.AdaptiveLimiter
	Policy      retrylimit.Policy
	Logger      zerolog.Logger
}

// Syncer reconciles registered commands with the compiled tree. Stored hashes
// let it skip commands that did not change since the last push.
type Syncer struct {
	api         CommandAPI
	storage     *storage.Storage
	descriptors []*slash.CommandDescriptor
	hashes      map[string]string
	opts        SyncOptions
}

func NewSyncer(api CommandAPI, st *storage.Storage, descriptors []*slash.CommandDescriptor, opts SyncOptions) *Syncer {
	if opts.Blacklisted == nil {
		opts.Blacklisted = func(string) bool { return false }
	}
	return &Syncer{
		api:         api,
		storage:     st,
		descriptors: descriptors,
		hashes:      hashCommands(descriptors),
		opts:        opts,
	}
}

// SyncResult lists what one sync changed.
type SyncResult struct {
	Scope     string
	Created   []string
	Deleted   []string
	Unchanged []string
}

func (s *Syncer) call(ctx context.Context, fn func(context.Context) error) error {
	return retrylimit.Do(ctx, s.opts.Limiter, s.opts.Policy, fn)
}

// Sync reconciles one scope. Failures of single commands do not stop the
// others; they are joined into the returned error.
func (s *Syncer) Sync(ctx context.Context, guildID string) (SyncResult, error) {
	res := SyncResult{Scope: guildID}
	if res.Scope == "" {
		res.Scope = storage.GlobalScope
	}
	log := s.opts.Logger.With().Str("scope", res.Scope).Logger()

	var existing []*discordgo.ApplicationCommand
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		existing, err = s.api.Commands(ctx, guildID)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("list commands of %s: %w", res.Scope, err)
	}

	wanted := s.wanted(guildID, log)
	stored, err := s.storage.CommandHashes(guildID)
	if err != nil {
		return res, err
	}

	var errs []error
	present := make(map[string]bool, len(existing))
	for _, old := range existing {
		if _, ok := wanted[old.Name]; ok {
			present[old.Name] = true
			continue
		}
		log.Info().Str("command", old.Name).Msg("Deleting obsolete command")
		err := s.call(ctx, func(ctx context.Context) error { return s.api.Delete(ctx, guildID, old.ID) })
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", old.Name, err))
			continue
		}
		delete(stored, old.Name)
		res.Deleted = append(res.Deleted, old.Name)
	}
	for name := range stored {
		if _, ok := wanted[name]; !ok {
			delete(stored, name)
		}
	}

	for _, d := range s.descriptors {
		if _, ok := wanted[d.Name]; !ok {
			continue
		}
		hash := s.hashes[d.Name]
		if present[d.Name] && stored[d.Name] == hash {
			res.Unchanged = append(res.Unchanged, d.Name)
			continue
		}
		cmd := ApplicationCommand(d)
		err := s.call(ctx, func(ctx context.Context) error { return s.api.Create(ctx, guildID, cmd) })
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", d.Name, err))
			delete(stored, d.Name)
			continue
		}
		stored[d.Name] = hash
		res.Created = append(res.Created, d.Name)
		log.Debug().Str("command", d.Name).Msg("Command registered")
	}

	if err := s.storage.SetCommandHashes(guildID, stored); err != nil {
		errs = append(errs, err)
	}
	log.Info().
		Int("created", len(res.Created)).
		Int("deleted", len(res.Deleted)).
		Int("unchanged", len(res.Unchanged)).
		Msg("Commands synced")
	return res, errors.Join(errs...)
}

// wanted returns the commands that should be registered in the scope.
func (s *Syncer) wanted(guildID string, log zerolog.Logger) map[string]string {
	if guildID != "" && s.opts.Blacklisted(guildID) {
		log.Info().Msg("Guild is blacklisted, removing all commands")
		return map[string]string{}
	}
	wanted := maps.Clone(s.hashes)
	if guildID == "" {
		return wanted
	}
	disabled, err := s.storage.Disabled(guildID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read disabled commands")
	}
	for _, name := range disabled {
		delete(wanted, name)
	}
	return wanted
}

// SyncAll syncs the given scopes on at most workers goroutines.
func (s *Syncer) SyncAll(ctx context.Context, guildIDs []string, workers int) error {
	guildIDs = slices.Compact(slices.Sorted(slices.Values(guildIDs)))
	return util.Parallel(ctx, guildIDs, workers, func(ctx context.Context, guildID string) error {
		_, err := s.Sync(ctx, guildID)
		return err
	})
}
