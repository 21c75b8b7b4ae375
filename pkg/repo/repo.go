package repo

import (
	"fmt"
	"sync/atomic"
	"time"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/models"
	"chatrelay/pkg/store"
)

// timestampLayout matches the persisted document format: UTC with
// millisecond precision and a literal Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// MessageInput carries the caller-supplied fields for a new message.
// Identity and timestamp are generated at insertion.
type MessageInput struct {
	Text           string
	Type           string
	Username       string
	IsAutoResponse bool
	ImageURL       string
	ImageName      string
	ImageSize      int64
	ReplyTo        string
}

// Repository provides the typed operations over the snapshot store: insert
// message, paginate messages, look up a user.
type Repository struct {
	store *store.Store
}

func New(st *store.Store) *Repository {
	return &Repository{store: st}
}

var idSeq uint64

// genID derives a message id from the creation time. The process-local
// sequence keeps ids unique when two inserts land on the same clock tick.
func genID(now time.Time) string {
	return fmt.Sprintf("%d-%d", now.UnixNano(), atomic.AddUint64(&idSeq, 1))
}

// Insert generates id and timestamp, prepends the record to the message
// list, and persists the full snapshot. The fully-formed record is returned
// even when persistence fails; the failure is logged but not surfaced.
// Concurrent inserts race on the whole-file read-modify-write cycle and may
// lose one write (last-write-wins on the snapshot).
func (r *Repository) Insert(in MessageInput) models.Message {
	snap := r.store.Load()
	now := time.Now().UTC()
	m := models.Message{
		ID:             genID(now),
		Text:           in.Text,
		Type:           in.Type,
		Username:       in.Username,
		Timestamp:      now.Format(timestampLayout),
		IsAutoResponse: in.IsAutoResponse,
		ImageURL:       in.ImageURL,
		ImageName:      in.ImageName,
		ImageSize:      in.ImageSize,
		ReplyTo:        in.ReplyTo,
	}
	// Most recent first; the slice order is the pagination order.
	snap.Messages = append([]models.Message{m}, snap.Messages...)
	if !r.store.Save(snap) {
		logger.Error("message_persist_failed", "id", m.ID, "user", m.Username)
	}
	return m
}

// Paginate returns the contiguous window [offset, offset+limit) of the
// reverse-chronological message list. Offsets beyond the list yield an
// empty window with HasMore=false. Count and slice come from the same
// loaded snapshot, so the result is consistent with itself but not with
// concurrent inserts.
func (r *Repository) Paginate(offset, limit int) models.Page {
	snap := r.store.Load()
	total := len(snap.Messages)

	start := offset
	if start > total {
		start = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	elements := make([]models.Message, end-start)
	copy(elements, snap.Messages[start:end])

	return models.Page{
		Elements: elements,
		Pagination: models.Pagination{
			Offset:        offset,
			Limit:         limit,
			TotalMessages: total,
			HasMore:       offset+limit < total,
		},
	}
}

// LookupUser finds a seeded user by exact, case-sensitive username match.
func (r *Repository) LookupUser(username string) (models.User, bool) {
	snap := r.store.Load()
	for _, u := range snap.Users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}
