package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"chatrelay/pkg/auth"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/utils"
)

// Auth owns login and token verification. Credentials are compared in
// plaintext against the seeded user document.
type Auth struct {
	Repo     *repo.Repository
	Secret   string
	Limiters *auth.LimiterPool
}

// RegisterAuth registers the auth endpoints on r.
func RegisterAuth(r *mux.Router, h *Auth, requireAuth func(http.Handler) http.Handler) {
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.Handle("/verify", requireAuth(http.HandlerFunc(h.verify))).Methods(http.MethodGet)
}

func (h *Auth) login(w http.ResponseWriter, r *http.Request) {
	if h.Limiters != nil && !h.Limiters.Allow(clientIP(r)) {
		utils.JSONError(w, http.StatusTooManyRequests, "Too many requests", "Login attempts exceeded, try again later")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Required fields", "Username and password are required")
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "Required fields", "Username and password are required")
		return
	}

	u, ok := h.Repo.LookupUser(req.Username)
	if !ok || u.Password != req.Password {
		logger.Warn("login_rejected", "user", req.Username, "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusForbidden, "Invalid credentials", "Incorrect username or password")
		return
	}

	token, err := auth.IssueToken(u.Username, h.Secret)
	if err != nil {
		logger.Error("token_issue_failed", "user", u.Username, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error", "Error processing login")
		return
	}

	logger.Info("login_ok", "user", u.Username)
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}{
		Token: token,
		User: struct {
			Username string `json:"username"`
		}{Username: u.Username},
	})
}

func (h *Auth) verify(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}{
		User: struct {
			Username string `json:"username"`
		}{Username: auth.UsernameFromContext(r.Context())},
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
