package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "database.json"))
	require.NoError(t, err)
	return s
}

func TestOpenSeedsDefaultDocument(t *testing.T) {
	t.Parallel()

	s := openTemp(t)

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var snap struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"users"`
		Messages []json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(b, &snap))
	require.Len(t, snap.Users, 1)
	require.Equal(t, "testuser", snap.Users[0].Username)
	require.Empty(t, snap.Messages)
}

func TestOpenKeepsExistingDocument(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	snap := s.Load()
	snap.Users = append(snap.Users, snap.Users[0])
	require.True(t, s.Save(snap))

	// Reopening must not re-seed.
	s2, err := Open(s.Path())
	require.NoError(t, err)
	require.Len(t, s2.Load().Users, 2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	snap := s.Load()
	snap.Messages = append(snap.Messages, messageFixture("m1"))
	require.True(t, s.Save(snap))

	got := s.Load()
	require.Len(t, got.Messages, 1)
	require.Equal(t, "m1", got.Messages[0].ID)
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	snap := s.Load()
	require.Len(t, snap.Users, 1)
	require.Empty(t, snap.Messages)

	// Degraded read must leave the on-disk file untouched.
	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, "{not json", string(b))
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	require.NoError(t, os.Remove(s.Path()))

	snap := s.Load()
	require.Len(t, snap.Users, 1)
	require.Empty(t, snap.Messages)
}

func TestSaveReportsFailure(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	// A directory at the document path makes the replace step fail.
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))

	require.False(t, s.Save(DefaultSnapshot()))
}
