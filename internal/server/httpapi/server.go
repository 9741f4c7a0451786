// Package httpapi exposes the attendance service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/dmitrijs2005/attendkeeper/internal/server/attendance"
	"github.com/dmitrijs2005/attendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// UserService is the registration and login surface.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.Identity, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AttendanceService is the verification pipeline surface.
type AttendanceService interface {
	Authenticate(token string) (*auth.Claims, error)
	Verify(ctx context.Context, username, encodedImage string) (*attendance.Result, error)
	History(ctx context.Context, username string, limit int) ([]models.AttendanceLogEntry, error)
}

// Server is the HTTP front end.
type Server struct {
	router       *chi.Mux
	httpServer   *http.Server
	users        UserService
	attendance   AttendanceService
	logger       logging.Logger
	maxBodyBytes int64
}

// NewServer builds the router and an http.Server bound to addr.
func NewServer(addr string, users UserService, att AttendanceService, maxBodyBytes int64, logger logging.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		users:        users,
		attendance:   att,
		logger:       logger.With("module", "httpapi"),
		maxBodyBytes: maxBodyBytes,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/login", s.handleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/log-attendance", s.handleLogAttendance)
		r.Get("/attendance", s.handleHistory)
	})
}

// Run serves until ctx is cancelled, then shuts down within grace.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

// Handler returns the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
