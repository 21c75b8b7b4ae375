package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatrelay/pkg/api/handlers"
	"chatrelay/pkg/auth"
	"chatrelay/pkg/autoreply"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/uploads"
	"chatrelay/pkg/utils"
	"chatrelay/pkg/ws"
)

// Deps carries the collaborators the router wires together.
type Deps struct {
	Repo     *repo.Repository
	Hub      *ws.Hub
	Replies  *autoreply.Scheduler
	Files    *uploads.Saver
	Secret   string
	Limiters *auth.LimiterPool
	Version  string
}

// NewRouter assembles the HTTP surface:
//   - POST /api/auth/login, GET /api/auth/verify
//   - POST /api/messages (and /send-text, /send-image aliases)
//   - GET  /api/messages, GET /api/messages/health
//   - GET  /uploads/<file>, GET /ws, GET /metrics
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)

	requireAuth := auth.Require(d.Secret)

	authH := &handlers.Auth{Repo: d.Repo, Secret: d.Secret, Limiters: d.Limiters}
	handlers.RegisterAuth(r.PathPrefix("/api/auth").Subrouter(), authH, requireAuth)

	msgH := &handlers.Messages{Repo: d.Repo, Bcast: d.Hub, Replies: d.Replies, Files: d.Files}
	handlers.RegisterMessages(r.PathPrefix("/api/messages").Subrouter(), msgH, requireAuth)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Files.Dir()))))
	r.HandleFunc("/ws", ws.ServeWS(d.Hub))
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/", index(d.Version)).Methods(http.MethodGet)

	return withRequestLogging(withHTTPMetrics(r))
}

func index(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
			"message": "Messaging API for Evaluation",
			"version": version,
			"endpoints": map[string]any{
				"auth": "/api/auth/login",
				"messages": map[string]string{
					"send_text":    "POST /api/messages/send-text",
					"send_image":   "POST /api/messages/send-image",
					"get_messages": "GET /api/messages",
				},
			},
		})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.JSONError(w, http.StatusNotFound, "Route not found", "Route "+r.URL.Path+" does not exist")
}
