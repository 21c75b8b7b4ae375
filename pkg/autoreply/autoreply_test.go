package autoreply

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/pkg/models"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/store"
	"chatrelay/pkg/ws"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (r *recordingBroadcaster) Broadcast(room, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func bootstrap(t *testing.T, delay time.Duration) (*Scheduler, *repo.Repository, *recordingBroadcaster) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "database.json"))
	require.NoError(t, err)
	r := repo.New(st)
	b := &recordingBroadcaster{}
	return New(r, b, delay), r, b
}

func TestArmInsertsSystemReply(t *testing.T) {
	t.Parallel()

	s, r, b := bootstrap(t, 20*time.Millisecond)

	trigger := r.Insert(repo.MessageInput{Text: "hola", Type: models.TypeText, Username: "testuser"})
	s.Arm(trigger)

	require.Eventually(t, func() bool { return b.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	page := r.Paginate(0, 10)
	require.Len(t, page.Elements, 2)

	reply := page.Elements[0]
	require.Equal(t, "Texto recibido", reply.Text)
	require.Equal(t, models.TypeText, reply.Type)
	require.Equal(t, models.SystemUser, reply.Username)
	require.True(t, reply.IsAutoResponse)
	require.Equal(t, trigger.ID, reply.ReplyTo)

	require.Equal(t, ws.EventNewMessage, b.events[0])
	broadcast, ok := b.data[0].(models.Message)
	require.True(t, ok)
	require.Equal(t, reply.ID, broadcast.ID)
}

func TestArmImageTriggerUsesImageBody(t *testing.T) {
	t.Parallel()

	s, r, b := bootstrap(t, 20*time.Millisecond)

	trigger := r.Insert(repo.MessageInput{Type: models.TypeImage, Username: "testuser", ImageURL: "/uploads/x.png"})
	s.Arm(trigger)

	require.Eventually(t, func() bool { return b.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	reply := r.Paginate(0, 1).Elements[0]
	require.Equal(t, "Imagen recibida", reply.Text)
	// Replies are always text messages, whatever the trigger type.
	require.Equal(t, models.TypeText, reply.Type)
}

func TestTimersAreIndependent(t *testing.T) {
	t.Parallel()

	s, r, b := bootstrap(t, 30*time.Millisecond)

	first := r.Insert(repo.MessageInput{Text: "one", Type: models.TypeText, Username: "testuser"})
	s.Arm(first)
	second := r.Insert(repo.MessageInput{Text: "two", Type: models.TypeText, Username: "testuser"})
	s.Arm(second)

	// A later message never cancels or coalesces an earlier timer.
	require.Eventually(t, func() bool { return b.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Assert on the broadcast records: concurrent timer inserts race on the
	// snapshot and the store may legitimately lose one of them.
	replyTos := map[string]bool{}
	b.mu.Lock()
	for _, d := range b.data {
		if m, ok := d.(models.Message); ok {
			replyTos[m.ReplyTo] = true
		}
	}
	b.mu.Unlock()
	require.True(t, replyTos[first.ID])
	require.True(t, replyTos[second.ID])
}

func TestZeroDelayFallsBackToDefault(t *testing.T) {
	t.Parallel()

	s, _, _ := bootstrap(t, 0)
	require.Equal(t, DefaultDelay, s.delay)
}
