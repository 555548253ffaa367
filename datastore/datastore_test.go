package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type record struct {
	Hash  string   `json:"hash"`
	Names []string `json:"names"`
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "nested", "store.json"))
	cfg.AutoSaveInterval = 0
	return cfg
}

func TestPutGetRoundTripsThroughDisk(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := testConfig(t)

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put("guild:1", record{Hash: "abc", Names: []string{"ping"}}))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	var got record
	ok, err := s.Get("guild:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record{Hash: "abc", Names: []string{"ping"}}, got)

	ok, err = s.Get("guild:2", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeysAndDelete(t *testing.T) {
	s, err := Open(testConfig(t))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("guild:2", 1))
	require.NoError(t, s.Put("guild:1", 2))
	require.NoError(t, s.Put("other", 3))
	assert.Equal(t, []string{"guild:1", "guild:2"}, s.Keys("guild:"))

	s.Delete("guild:1")
	assert.Equal(t, []string{"guild:2"}, s.Keys("guild:"))
	assert.Equal(t, 2, s.Stats().Keys)
}

func TestMemoryLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxMemorySize = 8
	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("a", "1234"))
	assert.ErrorIs(t, s.Put("b", "123456789"), ErrTooLarge)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put("a", 1), ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
}

func TestBackupsArePruned(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackupCount = 2
	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := range 5 {
		require.NoError(t, s.Put("n", i))
		require.NoError(t, s.Flush())
	}
	backups, err := filepath.Glob(cfg.FilePath + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestRejectsCorruptFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755))
	require.NoError(t, os.WriteFile(cfg.FilePath, []byte("[1,2]"), 0o644))
	_, err := Open(cfg)
	assert.Error(t, err)
}
