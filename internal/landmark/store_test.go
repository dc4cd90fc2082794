package landmark

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndForget(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("save_creates", func(t *testing.T) {
		assert.Equal(t, SaveCreated, s.Save("Home", 52.52, 13.405, 5.0, now))
		lm, ok := s.Get("home")
		require.True(t, ok)
		assert.Equal(t, "Home", lm.Name)
		assert.Equal(t, 52.52, lm.Lat)
	})

	t.Run("save_refuses_duplicate_case_insensitive", func(t *testing.T) {
		assert.Equal(t, SaveAlreadyExists, s.Save("  HOME ", 0, 0, 0, now))
		lm, _ := s.Get("home")
		assert.Equal(t, 52.52, lm.Lat)
	})

	t.Run("save_rejects_blank_name", func(t *testing.T) {
		assert.Equal(t, SaveInvalidName, s.Save("   ", 0, 0, 0, now))
	})

	t.Run("forget_removes", func(t *testing.T) {
		assert.Equal(t, ForgetDone, s.Forget("HOME"))
		_, ok := s.Get("home")
		assert.False(t, ok)
	})

	t.Run("forget_missing", func(t *testing.T) {
		assert.Equal(t, ForgetNotFound, s.Forget("office"))
	})

	t.Run("forget_rejects_blank_name", func(t *testing.T) {
		assert.Equal(t, ForgetInvalidName, s.Forget(""))
	})
}

func TestStoreNearest(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	now := time.Now()

	t.Run("empty_store", func(t *testing.T) {
		_, ok := s.Nearest(52.52, 13.405)
		assert.False(t, ok)
	})

	s.Save("far", 48.85, 2.35, 5, now)   // Paris
	s.Save("near", 52.51, 13.40, 5, now) // central Berlin

	t.Run("picks_closest", func(t *testing.T) {
		lm, ok := s.Nearest(52.52, 13.405)
		require.True(t, ok)
		assert.Equal(t, "near", lm.Name)
	})
}

func TestStoreAllSorted(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	now := time.Now()

	s.Save("zoo", 1, 1, 0, now)
	s.Save("bakery", 2, 2, 0, now)
	s.Save("market", 3, 3, 0, now)

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "bakery", all[0].Name)
	assert.Equal(t, "market", all[1].Name)
	assert.Equal(t, "zoo", all[2].Name)
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landmarks.yaml")
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	s, err := NewStore(path)
	require.NoError(t, err)
	require.Equal(t, SaveCreated, s.Save("Home", 52.52, 13.405, 5.0, now))
	require.Equal(t, SaveCreated, s.Save("Office", 52.50, 13.37, 8.0, now))
	require.Equal(t, ForgetDone, s.Forget("Office"))

	// A fresh store sees only what survived.
	reloaded, err := NewStore(path)
	require.NoError(t, err)

	all := reloaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Home", all[0].Name)
	assert.Equal(t, 52.52, all[0].Lat)
	assert.Equal(t, 13.405, all[0].Lon)
	assert.Equal(t, 5.0, all[0].Accuracy)
	assert.True(t, now.Equal(all[0].CreatedAt))
}

func TestStoreMissingFileIsEmpty(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, s.All())
}
