package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagolobla/episode-binger/internal/db"
)

func openTestCache(t *testing.T) *AlignmentCache {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn)
}

func TestGetSet_RoundTrip(t *testing.T) {
	c := openTestCache(t)

	_, _, ok := c.Get("a.mp4", 1, "b.mp4", 2)
	assert.False(t, ok, "miss on empty cache")

	require.NoError(t, c.Set("a.mp4", 1, "b.mp4", 2, Range{Start: 10, End: 20}, Range{Start: 30, End: 40}))

	r1, r2, ok := c.Get("a.mp4", 1, "b.mp4", 2)
	require.True(t, ok)
	assert.Equal(t, Range{Start: 10, End: 20}, r1)
	assert.Equal(t, Range{Start: 30, End: 40}, r2)
}

func TestGet_MissOnChangedModTime(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Set("a.mp4", 1, "b.mp4", 2, Range{Start: 10, End: 20}, Range{Start: 30, End: 40}))

	_, _, ok := c.Get("a.mp4", 99, "b.mp4", 2)
	assert.False(t, ok, "a changed mod_time invalidates the cached entry")
}

func TestSet_OverwritesPriorEntryForSamePair(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Set("a.mp4", 1, "b.mp4", 2, Range{Start: 10, End: 20}, Range{Start: 30, End: 40}))
	require.NoError(t, c.Set("a.mp4", 3, "b.mp4", 4, Range{Start: 50, End: 60}, Range{Start: 70, End: 80}))

	_, _, ok := c.Get("a.mp4", 1, "b.mp4", 2)
	assert.False(t, ok, "stale mod_time after overwrite no longer matches")

	r1, r2, ok := c.Get("a.mp4", 3, "b.mp4", 4)
	require.True(t, ok)
	assert.Equal(t, Range{Start: 50, End: 60}, r1)
	assert.Equal(t, Range{Start: 70, End: 80}, r2)
}
