// Package datastore is a small JSON-file key/value store. Values live in
// memory as raw JSON and are flushed to disk atomically on an interval, on
// Flush and on Close.
package datastore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("datastore is closed")

// ErrTooLarge is returned by Put when the memory limit would be exceeded.
var ErrTooLarge = errors.New("datastore memory limit exceeded")

// Config holds the store options.
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration
	// MaxMemorySize caps the encoded size of all values; 0 means unlimited.
	MaxMemorySize int64
	// BackupCount timestamped copies are kept next to the file.
	BackupCount int
	Logger      zerolog.Logger
}

// DefaultConfig returns the bot's defaults for filePath.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		MaxMemorySize:    100 << 20,
		BackupCount:      3,
		Logger:           zerolog.Nop(),
	}
}

// Store is safe for concurrent use.
type Store struct {
	cfg Config

	mu       sync.RWMutex
	data     map[string]json.RawMessage
	size     int64
	checksum [sha256.Size]byte
	closed   bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open loads or creates the store file and starts the autosave loop.
func Open(cfg Config) (*Store, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("datastore: file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("datastore: create directory: %w", err)
	}

	s := &Store{cfg: cfg, data: make(map[string]json.RawMessage)}
	switch raw, err := os.ReadFile(cfg.FilePath); {
	case errors.Is(err, os.ErrNotExist):
		if err := s.writeAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("datastore: create file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("datastore: read file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("datastore: %s is not a JSON object: %w", cfg.FilePath, err)
		}
		if s.data == nil {
			s.data = make(map[string]json.RawMessage)
		}
		for _, v := range s.data {
			s.size += int64(len(v))
		}
		s.checksum = sha256.Sum256(raw)
	}

	if cfg.AutoSaveInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(1)
		go s.autoSave(ctx)
	}
	return s, nil
}

// Put encodes value and stores it under key.
func (s *Store) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("datastore: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.size - int64(len(s.data[key])) + int64(len(raw))
	if s.cfg.MaxMemorySize > 0 && next > s.cfg.MaxMemorySize {
		return fmt.Errorf("%w: %q needs %d bytes", ErrTooLarge, key, len(raw))
	}
	s.data[key] = raw
	s.size = next
	return nil
}

// Get decodes the value under key into dst. It reports false when the key is
// absent.
func (s *Store) Get(key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return false, ErrClosed
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("datastore: decode %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.data[key]; ok {
		s.size -= int64(len(raw))
		delete(s.data, key)
	}
}

// Keys returns the keys with the given prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Flush writes pending changes to disk.
func (s *Store) Flush() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return s.save()
}

// Close stops the autosave loop and writes a final snapshot.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return s.save()
}

// Stats describes the store for the status command.
type Stats struct {
	Keys  int
	Bytes int64
	Path  string
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Keys: len(s.data), Bytes: s.size, Path: s.cfg.FilePath}
}

func (s *Store) save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("datastore: encode: %w", err)
	}
	sum := sha256.Sum256(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.checksum {
		return nil
	}
	if s.cfg.BackupCount > 0 {
		if err := s.backup(); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("Failed to create backup")
		}
	}
	if err := s.writeAtomic(raw); err != nil {
		return err
	}
	if written, err := os.ReadFile(s.cfg.FilePath); err != nil || !bytes.Equal(written, raw) {
		return fmt.Errorf("datastore: verify %s: checksum mismatch", s.cfg.FilePath)
	}
	s.checksum = sum
	return nil
}

func (s *Store) writeAtomic(raw []byte) error {
	tmp := s.cfg.FilePath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("datastore: open temp file: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: rename temp file: %w", err)
	}
	return nil
}

func (s *Store) backup() error {
	src, err := os.Open(s.cfg.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", s.cfg.FilePath, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	s.pruneBackups()
	return nil
}

// pruneBackups keeps the newest BackupCount copies. Backup names sort
// chronologically.
func (s *Store) pruneBackups() {
	matches, err := filepath.Glob(s.cfg.FilePath + ".backup.*")
	if err != nil || len(matches) <= s.cfg.BackupCount {
		return
	}
	slices.Sort(matches)
	for _, old := range matches[:len(matches)-s.cfg.BackupCount] {
		if err := os.Remove(old); err != nil {
			s.cfg.Logger.Warn().Err(err).Str("file", old).Msg("Failed to remove old backup")
		}
	}
}

func (s *Store) autoSave(ctx context.Context) {
	defer s.wg.Done()
	t := time.NewTicker(s.cfg.AutoSaveInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.save(); err != nil {
				s.cfg.Logger.Error().Err(err).Msg("Auto-save failed")
			}
		}
	}
}
