package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chatrelay/pkg/api"
	"chatrelay/pkg/auth"
	"chatrelay/pkg/autoreply"
	"chatrelay/pkg/banner"
	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/maintenance"
	"chatrelay/pkg/repo"
	"chatrelay/pkg/store"
	"chatrelay/pkg/uploads"
	"chatrelay/pkg/ws"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	version string

	store   *store.Store
	repo    *repo.Repository
	hub     *ws.Hub
	replies *autoreply.Scheduler
	files   *uploads.Saver

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// snapshot store (seeding it on first access), the uploads directory, and
// the message pipeline. Call Run to start the hub, the backup job, and the
// HTTP server.
func New(cfg *config.Config, addr, version string) (*App, error) {
	st, err := store.Open(cfg.DataFile())
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.DataFile(), err)
	}
	files, err := uploads.New(cfg.UploadsDir())
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub()
	r := repo.New(st)
	replies := autoreply.New(r, hub, cfg.ReplyDelay())

	a := &App{
		cfg:     cfg,
		addr:    addr,
		version: version,
		store:   st,
		repo:    r,
		hub:     hub,
		replies: replies,
		files:   files,
	}
	return a, nil
}

// Run starts the hub, the backup scheduler, and the HTTP server, and blocks
// until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)

	stopBackups, err := maintenance.StartBackups(ctx, a.cfg, a.store)
	if err != nil {
		return err
	}
	defer stopBackups()

	banner.Print(a.addr, a.store.Path(), a.version)

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http_shutdown_error", "error", err)
		}
		logger.Info("server_stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP() <-chan error {
	handler := api.NewRouter(api.Deps{
		Repo:    a.repo,
		Hub:     a.hub,
		Replies: a.replies,
		Files:   a.files,
		Secret:  a.cfg.JWTSecret(),
		Limiters: auth.NewLimiterPool(auth.LimitConfig{
			RPS:   a.cfg.Auth.Login.RPS,
			Burst: a.cfg.Auth.Login.Burst,
		}),
		Version: a.version,
	})

	a.srv = &http.Server{Addr: a.addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", a.addr)
		errCh <- a.srv.ListenAndServe()
	}()
	return errCh
}
