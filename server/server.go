// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/jobsift"
	"github.com/poiesic/jobsift/search"
)

// ErrBackendRequired is returned when no backend is given.
var ErrBackendRequired = errors.New("backend required")

// Backend is the engine the server fronts. *jobsift.Service implements it.
type Backend interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Invalidate(ctx context.Context) error
	Status(ctx context.Context) jobsift.Status
}

var _ Backend = (*jobsift.Service)(nil)

// Server is the HTTP API.
type Server struct {
	backend      Backend
	router       *gin.Engine
	adminToken   string
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithAdminToken requires token in X-Admin-Token on admin endpoints.
func WithAdminToken(token string) Option {
	return func(s *Server) error {
		s.adminToken = token
		return nil
	}
}

// WithTimeouts sets the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) error {
		s.readTimeout = read
		s.writeTimeout = write
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates the server and its routes.
func New(backend Backend, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	s := &Server{
		backend:      backend,
		readTimeout:  15 * time.Second,
		writeTimeout: 30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "http")

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger), ErrorHandler())
	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(newAPIError(CodeNotFound, "no such endpoint", http.StatusNotFound, nil))
	})

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	api.GET("/search", s.handleSearchGet)
	api.POST("/search", s.handleSearchPost)
	api.GET("/status", s.handleStatus)

	admin := api.Group("/admin", AdminAuth(s.adminToken))
	admin.POST("/invalidate", s.handleInvalidate)

	s.router = router
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully, giving in-flight requests up to ten seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
