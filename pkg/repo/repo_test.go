package repo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/pkg/models"
	"chatrelay/pkg/store"
)

func bootstrapRepo(t *testing.T) (*Repository, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "database.json"))
	require.NoError(t, err)
	return New(st), st
}

func TestInsertAssignsIdentityAndTimestamp(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)

	before := time.Now().UTC().Add(-time.Second)
	m := r.Insert(MessageInput{Text: "hello", Type: models.TypeText, Username: "testuser"})

	require.NotEmpty(t, m.ID)
	require.Equal(t, "hello", m.Text)
	require.False(t, m.IsAutoResponse)

	ts, err := time.Parse("2006-01-02T15:04:05.000Z", m.Timestamp)
	require.NoError(t, err)
	require.True(t, ts.After(before))
	require.True(t, ts.Before(time.Now().UTC().Add(time.Second)))
}

func TestInsertIdsUnique(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		m := r.Insert(MessageInput{Text: "x", Type: models.TypeText, Username: "testuser"})
		_, dup := seen[m.ID]
		require.False(t, dup, "duplicate id %s", m.ID)
		seen[m.ID] = struct{}{}
	}
}

func TestInsertPrependsNewestFirst(t *testing.T) {
	t.Parallel()

	r, st := bootstrapRepo(t)

	first := r.Insert(MessageInput{Text: "first", Type: models.TypeText, Username: "testuser"})
	second := r.Insert(MessageInput{Text: "second", Type: models.TypeText, Username: "testuser"})

	snap := st.Load()
	require.Len(t, snap.Messages, 2)
	require.Equal(t, second.ID, snap.Messages[0].ID)
	require.Equal(t, first.ID, snap.Messages[1].ID)
}

func TestInsertReturnsRecordWhenSaveFails(t *testing.T) {
	t.Parallel()

	r, st := bootstrapRepo(t)
	// Break persistence: a directory at the document path fails the save.
	require.NoError(t, os.Remove(st.Path()))
	require.NoError(t, os.Mkdir(st.Path(), 0o755))

	m := r.Insert(MessageInput{Text: "optimistic", Type: models.TypeText, Username: "testuser"})
	require.NotEmpty(t, m.ID)
	require.NotEmpty(t, m.Timestamp)
}

func TestPaginateWindows(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	for i := 0; i < 7; i++ {
		r.Insert(MessageInput{Text: "m", Type: models.TypeText, Username: "testuser"})
	}

	page := r.Paginate(0, 3)
	require.Len(t, page.Elements, 3)
	require.Equal(t, 7, page.Pagination.TotalMessages)
	require.True(t, page.Pagination.HasMore)

	next := r.Paginate(3, 3)
	require.Len(t, next.Elements, 3)
	require.True(t, next.Pagination.HasMore)

	last := r.Paginate(6, 3)
	require.Len(t, last.Elements, 1)
	require.False(t, last.Pagination.HasMore)
}

func TestPaginateContiguousNonOverlapping(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	for i := 0; i < 10; i++ {
		r.Insert(MessageInput{Text: "m", Type: models.TypeText, Username: "testuser"})
	}

	full := r.Paginate(0, 10).Elements
	head := r.Paginate(0, 4).Elements
	tail := r.Paginate(4, 6).Elements

	require.Len(t, full, 10)
	joined := append(append([]models.Message{}, head...), tail...)
	require.Equal(t, full, joined)
}

func TestPaginateBeyondEnd(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	r.Insert(MessageInput{Text: "only", Type: models.TypeText, Username: "testuser"})

	page := r.Paginate(10, 5)
	require.Empty(t, page.Elements)
	require.False(t, page.Pagination.HasMore)
	require.Equal(t, 1, page.Pagination.TotalMessages)
}

func TestPaginateHasMoreBoundary(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	for i := 0; i < 5; i++ {
		r.Insert(MessageInput{Text: "m", Type: models.TypeText, Username: "testuser"})
	}

	// hasMore iff offset+limit < total.
	require.False(t, r.Paginate(0, 5).Pagination.HasMore)
	require.True(t, r.Paginate(0, 4).Pagination.HasMore)
	require.False(t, r.Paginate(4, 1).Pagination.HasMore)
}

func TestPaginateIdempotentOnQuiescentStore(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	for i := 0; i < 4; i++ {
		r.Insert(MessageInput{Text: "m", Type: models.TypeText, Username: "testuser"})
	}

	first := r.Paginate(1, 2)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, r.Paginate(1, 2))
	}
}

func TestInsertRoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)
	m := r.Insert(MessageInput{Text: "round trip", Type: models.TypeText, Username: "testuser"})

	page := r.Paginate(0, 1)
	require.Len(t, page.Elements, 1)
	require.Equal(t, m, page.Elements[0])
}

func TestLookupUser(t *testing.T) {
	t.Parallel()

	r, _ := bootstrapRepo(t)

	u, ok := r.LookupUser("testuser")
	require.True(t, ok)
	require.Equal(t, "1", u.ID)

	// Exact, case-sensitive match only.
	_, ok = r.LookupUser("TestUser")
	require.False(t, ok)
	_, ok = r.LookupUser("ghost")
	require.False(t, ok)
}

// Concurrent inserts race on the whole-file read-modify-write cycle; the
// snapshot-level last-write-wins behavior may lose messages but must never
// corrupt the document or duplicate ids.
func TestConcurrentInsertsBoundedLoss(t *testing.T) {
	t.Parallel()

	r, st := bootstrapRepo(t)

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			r.Insert(MessageInput{Text: "racer", Type: models.TypeText, Username: "testuser"})
		}()
	}
	wg.Wait()

	b, err := os.ReadFile(st.Path())
	require.NoError(t, err)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(b, &snap), "persisted document must stay valid JSON")

	require.GreaterOrEqual(t, len(snap.Messages), 1)
	require.LessOrEqual(t, len(snap.Messages), writers)

	seen := map[string]struct{}{}
	for _, m := range snap.Messages {
		_, dup := seen[m.ID]
		require.False(t, dup, "duplicate id %s", m.ID)
		seen[m.ID] = struct{}{}
	}
}
