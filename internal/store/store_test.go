package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "xextract.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSavePostsUpserts(t *testing.T) {
	s := newTestStore(t)

	first := []types.Post{
		{Text: "hello", Author: "@a", Timestamp: "2024-01-01T00:00:00.000Z", MediaURLs: []string{"https://pbs.twimg.com/media/x?name=large"}, Engagement: types.Engagement{Likes: 1}},
		{Text: "world", Author: "@b", Timestamp: "2024-01-02T00:00:00.000Z"},
	}
	require.NoError(t, s.SavePosts(1, first))

	again := []types.Post{{Text: "hello", Author: "@a", Timestamp: "2024-01-01T00:00:00.000Z", Engagement: types.Engagement{Likes: 50, Views: 900}}}
	require.NoError(t, s.SavePosts(2, again))

	n, err := s.PostCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	posts, err := s.AllPosts()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "hello", posts[0].Text)
	assert.Equal(t, 50, posts[0].Engagement.Likes)
	assert.Equal(t, 900, posts[0].Engagement.Views)
	assert.Equal(t, []string{"https://pbs.twimg.com/media/x?name=large"}, posts[0].MediaURLs, "media is kept from the first sighting")
	assert.Equal(t, []string{}, posts[1].MediaURLs)
}

func TestAllPostsEmpty(t *testing.T) {
	posts, err := newTestStore(t).AllPosts()
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	id1, err := s.SaveSession(SessionRecord{StartedAt: start, EndedAt: start.Add(time.Minute), Target: 100, Collected: 100, State: "completed"})
	require.NoError(t, err)
	id2, err := s.SaveSession(SessionRecord{StartedAt: start, EndedAt: start.Add(2 * time.Minute), Target: 50, Collected: 3, State: "errored", Error: "too many consecutive errors"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	recent, err := s.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "errored", recent[0].State)
	assert.Equal(t, "too many consecutive errors", recent[0].Error)
	assert.Equal(t, start.Add(2*time.Minute), recent[0].EndedAt)
	assert.Equal(t, "", recent[1].Error)
}

func TestFlags(t *testing.T) {
	s := newTestStore(t)

	active, err := s.Active()
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, s.SetActive(true))
	active, err = s.Active()
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, s.SetActive(false))
	v, ok, err := s.Flag(ActiveFlag)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestErrorLogIsCapped(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxErrorLogEntries+10; i++ {
		require.NoError(t, s.AppendError(base.Add(time.Duration(i)*time.Second), fmt.Sprintf("error %d", i)))
	}

	entries, err := s.RecentErrors()
	require.NoError(t, err)
	require.Len(t, entries, MaxErrorLogEntries)
	assert.Equal(t, "error 10", entries[0].Message)
	assert.Equal(t, fmt.Sprintf("error %d", MaxErrorLogEntries+9), entries[len(entries)-1].Message)
	assert.Equal(t, base.Add(10*time.Second), entries[0].At)

	require.NoError(t, s.ClearErrors())
	entries, err = s.RecentErrors()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshots(t *testing.T) {
	dir := t.TempDir()

	_, err := LatestSnapshotFile(dir)
	assert.Error(t, err)

	older := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	_, err = SaveSnapshot(dir, older, []types.Post{{Text: "old"}})
	require.NoError(t, err)
	want, err := SaveSnapshot(dir, newer, []types.Post{{Text: "new"}})
	require.NoError(t, err)

	latest, err := LatestSnapshotFile(dir)
	require.NoError(t, err)
	assert.Equal(t, want, latest)
	assert.Equal(t, "2024-06-01T11-00-00.json", filepath.Base(latest))

	posts, err := LoadSnapshot[[]types.Post](latest)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].Text)
}

func TestLatestSnapshotMissingDir(t *testing.T) {
	_, err := LatestSnapshotFile(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
