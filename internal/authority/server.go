package authority

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/clinidoc/actd/internal/auth"
	"github.com/clinidoc/actd/internal/logger"
	"github.com/clinidoc/actd/internal/settings"
)

// Settings keys used for write-through persistence of the authority state.
const (
	keyAuthorityActive  = "authority_active"
	keyAuthorityMessage = "authority_message"
)

// Config holds the server bind settings.
type Config struct {
	Host      string
	Port      int
	LogFormat string
}

// Server serves the canonical activation decision over HTTP.
type Server struct {
	cfg        Config
	tokens     *auth.TokenSet
	state      *State
	store      *settings.Store
	httpServer *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithSettingsStore enables write-through persistence: every mutation is
// recorded durably and the last persisted decision is recovered on start.
func WithSettingsStore(store *settings.Store) Option {
	return func(srv *Server) { srv.store = store }
}

// New creates a Server with the given bind config and credential set.
func New(cfg Config, tokens *auth.TokenSet, opts ...Option) *Server {
	srv := &Server{
		cfg:    cfg,
		tokens: tokens,
		state:  NewState(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Serve starts the HTTP server and blocks until the context is done or a
// shutdown signal arrives.
func (srv *Server) Serve(ctx context.Context) error {
	srv.recoverState(ctx)

	requestLogger := httplog.NewLogger("http", httplog.Options{
		LogLevel:         slog.LevelInfo,
		JSON:             srv.cfg.LogFormat == "json",
		Concise:          true,
		MessageFieldName: "msg",
	})

	r := chi.NewMux()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(requestLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	srv.routes(r)

	addr := net.JoinHostPort(srv.cfg.Host, strconv.Itoa(srv.cfg.Port))
	srv.httpServer = &http.Server{
		Handler:           r,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Activation authority is starting", "addr", addr)
		if err := srv.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Context done, shutting down authority")
	case sig := <-quit:
		logger.Info(ctx, "Received shutdown signal", "signal", sig.String())
	case err := <-serveErr:
		return fmt.Errorf("failed to serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the HTTP server.
func (srv *Server) Shutdown(ctx context.Context) error {
	if srv.httpServer == nil {
		return nil
	}
	logger.Info(ctx, "Authority is shutting down", "addr", srv.httpServer.Addr)
	return srv.httpServer.Shutdown(ctx)
}

// Handler returns the route handler without starting a listener. Used by
// tests and in-process callers.
func (srv *Server) Handler() http.Handler {
	r := chi.NewMux()
	srv.routes(r)
	return r
}

// setState mutates the singleton and, when a store is attached, records the
// new decision durably.
func (srv *Server) setState(ctx context.Context, active bool, message string) Snapshot {
	snap := srv.state.Set(active, message)
	if srv.store != nil {
		value := "false"
		if snap.Active {
			value = "true"
		}
		if err := srv.store.Put(ctx, keyAuthorityActive, value); err != nil {
			logger.Warn(ctx, "Failed to persist authority state", "err", err)
		}
		if err := srv.store.Put(ctx, keyAuthorityMessage, snap.Message); err != nil {
			logger.Warn(ctx, "Failed to persist authority message", "err", err)
		}
	}
	return snap
}

// recoverState loads the last persisted decision, if any.
func (srv *Server) recoverState(ctx context.Context) {
	if srv.store == nil {
		return
	}
	entry, err := srv.store.Lookup(ctx, keyAuthorityActive)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			logger.Warn(ctx, "Failed to recover authority state", "err", err)
		}
		return
	}
	message := initialMessage
	if m, err := srv.store.Get(ctx, keyAuthorityMessage); err == nil && m != "" {
		message = m
	}
	srv.state.Restore(entry.Value != "false", message, entry.UpdatedAt)
	logger.Info(ctx, "Recovered persisted authority state",
		"active", entry.Value != "false", "updated_at", entry.UpdatedAt)
}
