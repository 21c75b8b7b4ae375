package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"chatrelay/pkg/auth"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/models"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/uploads"
	"chatrelay/pkg/utils"
	"chatrelay/pkg/ws"
)

// Pagination bounds for GET /messages.
const (
	defaultOffset = 0
	defaultLimit  = 10
	maxLimit      = 50
)

// Replies is the scheduling capability the ingestion path needs from the
// auto-reply layer.
type Replies interface {
	Arm(trigger models.Message)
}

// Broadcaster mirrors the hub's publish capability.
type Broadcaster interface {
	Broadcast(room, event string, data any)
}

// Messages owns the ingestion and query endpoints. Each inbound message
// runs the same ordered effect sequence: repository insert, broadcast to
// the shared room, arm the auto-reply.
type Messages struct {
	Repo    *repo.Repository
	Bcast   Broadcaster
	Replies Replies
	Files   *uploads.Saver
}

// RegisterMessages registers the message endpoints on r. requireAuth wraps
// everything except the health probe.
func RegisterMessages(r *mux.Router, h *Messages, requireAuth func(http.Handler) http.Handler) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/send-text", requireAuth(http.HandlerFunc(h.sendText))).Methods(http.MethodPost)
	r.Handle("/send-image", requireAuth(http.HandlerFunc(h.sendImage))).Methods(http.MethodPost)
	r.Handle("", requireAuth(http.HandlerFunc(h.send))).Methods(http.MethodPost)
	r.Handle("", requireAuth(http.HandlerFunc(h.list))).Methods(http.MethodGet)
}

// send dispatches POST /messages on content type: multipart bodies are
// image messages, everything else is treated as a text message.
func (h *Messages) send(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.sendImage(w, r)
		return
	}
	h.sendText(w, r)
}

func (h *Messages) sendText(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFromContext(r.Context())
	if username == "" {
		utils.JSONError(w, http.StatusUnauthorized, "User not authenticated", "Invalid user token")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid body", "Request body must be JSON")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		utils.JSONError(w, http.StatusBadRequest, "Text required", "Message cannot be empty")
		return
	}

	m := h.Repo.Insert(repo.MessageInput{
		Text:     text,
		Type:     models.TypeText,
		Username: username,
	})
	h.Bcast.Broadcast(ws.DefaultRoom, ws.EventNewMessage, m)
	h.Replies.Arm(m)

	logger.Info("message_created", "id", m.ID, "type", m.Type, "user", username)
	_ = utils.JSONWrite(w, http.StatusCreated, struct {
		Data models.Message `json:"data"`
	}{Data: m})
}

func (h *Messages) sendImage(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFromContext(r.Context())
	if username == "" {
		utils.JSONError(w, http.StatusUnauthorized, "User not authenticated", "Invalid user token")
		return
	}

	if err := r.ParseMultipartForm(uploads.MaxSize); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Image required", "Must upload an image file")
		return
	}
	_, fh, err := r.FormFile("image")
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Image required", "Must upload an image file")
		return
	}

	saved, err := h.Files.Save(fh)
	if err != nil {
		if err == uploads.ErrUnsupportedType {
			utils.JSONError(w, http.StatusBadRequest, "Invalid image", err.Error())
			return
		}
		logger.Error("upload_failed", "user", username, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error", "Error sending image")
		return
	}

	m := h.Repo.Insert(repo.MessageInput{
		Text:      r.FormValue("caption"),
		Type:      models.TypeImage,
		Username:  username,
		ImageURL:  saved.URL,
		ImageName: saved.OriginalName,
		ImageSize: saved.Size,
	})
	h.Bcast.Broadcast(ws.DefaultRoom, ws.EventNewMessage, m)
	h.Replies.Arm(m)

	logger.Info("message_created", "id", m.ID, "type", m.Type, "user", username)
	_ = utils.JSONWrite(w, http.StatusCreated, struct {
		Data models.Message `json:"data"`
	}{Data: m})
}

func (h *Messages) list(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(r, "offset", defaultOffset)
	if !ok || offset < 0 {
		utils.JSONError(w, http.StatusBadRequest, "Invalid offset", "Offset must be greater than or equal to 0")
		return
	}
	limit, ok := queryInt(r, "limit", defaultLimit)
	if !ok || limit < 1 || limit > maxLimit {
		utils.JSONError(w, http.StatusBadRequest, "Invalid limit", "Limit must be between 1 and 50")
		return
	}

	page := h.Repo.Paginate(offset, limit)
	logger.Debug("messages_list", "offset", offset, "limit", limit, "total", page.Pagination.TotalMessages)
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

func (h *Messages) health(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Service   string `json:"service"`
	}{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "messaging-api",
	})
}

// queryInt parses an integer query parameter. A missing parameter yields
// the default; a malformed value is a validation failure.
func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
