package autoreply

import (
	"time"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/models"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/ws"
)

// Reply bodies by triggering message type.
const (
	textReply  = "Texto recibido"
	imageReply = "Imagen recibida"
)

// DefaultDelay between the triggering message and the synthetic reply.
const DefaultDelay = 2 * time.Second

// Broadcaster is the delivery capability the scheduler needs from the
// realtime layer.
type Broadcaster interface {
	Broadcast(room, event string, data any)
}

// Scheduler arms one fire-and-forget timer per triggering message. Timers
// are independent: no deduplication, coalescing, or cancellation. A timer
// pending at process exit is silently lost.
type Scheduler struct {
	repo  *repo.Repository
	bcast Broadcaster
	delay time.Duration
	room  string
}

func New(r *repo.Repository, b Broadcaster, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{repo: r, bcast: b, delay: delay, room: ws.DefaultRoom}
}

// Arm schedules the system reply for trigger. The timer callback carries
// its own copies of the trigger id and type, so firing does not depend on
// state that may change in the meantime. If no subscribers are joined at
// fire time the reply is still durably inserted and becomes visible via
// pagination only.
func (s *Scheduler) Arm(trigger models.Message) {
	body := textReply
	if trigger.Type == models.TypeImage {
		body = imageReply
	}
	triggerID := trigger.ID

	time.AfterFunc(s.delay, func() {
		m := s.repo.Insert(repo.MessageInput{
			Text:           body,
			Type:           models.TypeText,
			Username:       models.SystemUser,
			IsAutoResponse: true,
			ReplyTo:        triggerID,
		})
		s.bcast.Broadcast(s.room, ws.EventNewMessage, m)
		logger.Info("auto_reply_fired", "id", m.ID, "reply_to", triggerID)
	})
}
