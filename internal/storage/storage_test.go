package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slashroute/datastore"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return New(ds)
}

func TestCommandHashes(t *testing.T) {
	s := newStorage(t)

	got, err := s.CommandHashes("")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetCommandHashes("", map[string]string{"ping": "abc"}))
	require.NoError(t, s.SetCommandHashes("42", map[string]string{"roll": "def"}))

	got, err = s.CommandHashes(GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ping": "abc"}, got)
	assert.Equal(t, []string{"42", GlobalScope}, s.Guilds())
}

func TestHistoryIsBounded(t *testing.T) {
	s := newStorage(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range historyLimit + 5 {
		require.NoError(t, s.AppendHistory("1", Invocation{
			Command:  fmt.Sprintf("/roll %d", i),
			Datetime: start.Add(time.Duration(i) * time.Minute),
		}))
	}
	h, err := s.History("1")
	require.NoError(t, err)
	require.Len(t, h, historyLimit)
	assert.Equal(t, "/roll 5", h[0].Command)
	assert.Equal(t, fmt.Sprintf("/roll %d", historyLimit+4), h[len(h)-1].Command)
}

func TestDisableEnable(t *testing.T) {
	s := newStorage(t)
	require.NoError(t, s.Disable("1", "roll"))
	require.NoError(t, s.Disable("1", "roll"))
	require.NoError(t, s.Disable("1", "manage"))

	got, err := s.Disabled("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"manage", "roll"}, got)

	disabled, err := s.IsDisabled("1", "roll")
	require.NoError(t, err)
	assert.True(t, disabled)

	require.NoError(t, s.Enable("1", "roll"))
	disabled, err = s.IsDisabled("1", "roll")
	require.NoError(t, err)
	assert.False(t, disabled)

	disabled, err = s.IsDisabled("2", "roll")
	require.NoError(t, err)
	assert.False(t, disabled)
}
