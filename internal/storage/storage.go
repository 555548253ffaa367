// Package storage keeps per-guild bot state in the datastore: registration
// hashes, disabled commands and the invocation history.
package storage

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"slashroute/datastore"
)

const historyLimit = 20

// GlobalScope is the record key used for globally registered commands.
const GlobalScope = "global"

// Invocation is one entry of a guild's command history.
type Invocation struct {
	RequestID string    `json:"request_id"`
	Command   string    `json:"command"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Error     string    `json:"error,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

// Record is the persisted state of one guild (or the global scope).
type Record struct {
	Hashes   map[string]string `json:"hashes"`
	Disabled []string          `json:"disabled"`
	History  []Invocation      `json:"history"`
}

type Storage struct {
	ds *datastore.Store
	// mu serialises read-modify-write cycles on records.
	mu sync.Mutex
}

func New(ds *datastore.Store) *Storage {
	return &Storage{ds: ds}
}

func key(scope string) string {
	if scope == "" {
		scope = GlobalScope
	}
	return "guild:" + scope
}

func (s *Storage) load(scope string) (*Record, error) {
	rec := &Record{}
	if _, err := s.ds.Get(key(scope), rec); err != nil {
		return nil, fmt.Errorf("load %s: %w", key(scope), err)
	}
	if rec.Hashes == nil {
		rec.Hashes = map[string]string{}
	}
	return rec, nil
}

func (s *Storage) update(scope string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(scope)
	if err != nil {
		return err
	}
	fn(rec)
	return s.ds.Put(key(scope), rec)
}

func (s *Storage) view(scope string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(scope)
}

// CommandHashes returns the descriptor hashes last pushed to scope.
func (s *Storage) CommandHashes(scope string) (map[string]string, error) {
	rec, err := s.view(scope)
	if err != nil {
		return nil, err
	}
	return rec.Hashes, nil
}

// SetCommandHashes replaces the stored hashes of scope.
func (s *Storage) SetCommandHashes(scope string, hashes map[string]string) error {
	return s.update(scope, func(r *Record) {
		r.Hashes = make(map[string]string, len(hashes))
		for k, v := range hashes {
			r.Hashes[k] = v
		}
	})
}

// AppendHistory records an invocation, keeping the newest entries only.
func (s *Storage) AppendHistory(guildID string, inv Invocation) error {
	return s.update(guildID, func(r *Record) {
		r.History = append(r.History, inv)
		if len(r.History) > historyLimit {
			r.History = slices.Clone(r.History[len(r.History)-historyLimit:])
		}
	})
}

// History returns the invocation history, oldest first.
func (s *Storage) History(guildID string) ([]Invocation, error) {
	rec, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// Disable marks a top-level command as disabled in a guild.
func (s *Storage) Disable(guildID, command string) error {
	return s.update(guildID, func(r *Record) {
		if !slices.Contains(r.Disabled, command) {
			r.Disabled = append(r.Disabled, command)
			slices.Sort(r.Disabled)
		}
	})
}

// Enable reverses Disable.
func (s *Storage) Enable(guildID, command string) error {
	return s.update(guildID, func(r *Record) {
		r.Disabled = slices.DeleteFunc(r.Disabled, func(c string) bool { return c == command })
	})
}

func (s *Storage) IsDisabled(guildID, command string) (bool, error) {
	rec, err := s.view(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(rec.Disabled, command), nil
}

// Disabled returns the disabled commands of a guild, sorted.
func (s *Storage) Disabled(guildID string) ([]string, error) {
	rec, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	return rec.Disabled, nil
}

// Guilds returns every scope with a stored record.
func (s *Storage) Guilds() []string {
	keys := s.ds.Keys("guild:")
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len("guild:"):])
	}
	return out
}
