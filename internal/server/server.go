// Package server exposes chat sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config fields left zero.
const (
	DefaultAddr           = ":8765"
	DefaultMaxUploadBytes = 32 << 20
	DefaultSessionTTL     = 30 * time.Minute
	DefaultRequestTimeout = 2 * time.Minute
)

// Config holds configuration for the API server.
type Config struct {
	Addr string
	// SessionSecret signs the session cookie. A random key is used when empty,
	// so sessions do not survive a restart.
	SessionSecret  string
	MaxUploadBytes int64
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	// SecureCookies marks the session cookie Secure. Set it only when the
	// API is reached over HTTPS, or browsers will not send the cookie back.
	SecureCookies  bool
	AllowedOrigins []string
	PreviewRows    int
	NewSession     Factory
	Logger         *slog.Logger
}

// Server is the API server.
type Server struct {
	cfg          Config
	manager      *Manager
	sessionStore *sessions.CookieStore
	logger       *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(int(cfg.SessionTTL.Seconds()))
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Secure = cfg.SecureCookies

	return &Server{
		cfg:          cfg,
		manager:      NewManager(cfg.NewSession, cfg.SessionTTL, cfg.Logger),
		sessionStore: sessionStore,
		logger:       cfg.Logger,
	}
}

// Manager returns the server's session manager.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Handler builds the HTTP handler with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(s.cfg.RequestTimeout),
	)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	SetupRoutes(r, NewHandlers(s.manager, s.sessionStore, s.cfg, s.logger))
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.cfg.Addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.manager.Run(egctx)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
