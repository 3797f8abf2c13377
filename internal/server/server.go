package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
	"github.com/desertthunder/blendify/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery and CORS.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own several routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators a [Server] routes requests to.
type Deps struct {
	Config      *shared.Config
	Service     services.OAuthService
	Engine      *tasks.BlendEngine
	Credentials models.CredentialStore
	Logger      *log.Logger
}

// Server is the Blendify HTTP server.
type Server struct {
	config *shared.Config
	router *BasicRouter
	logger *log.Logger
}

// New wires the auth, API and page handlers onto a router with the standard middleware chain.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Service == nil || deps.Engine == nil || deps.Credentials == nil {
		return nil, fmt.Errorf("%w: server dependencies are incomplete", shared.ErrInvalidConfig)
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("component", "server")

	tokens := NewTokenResolver(deps.Credentials)

	router := NewBasicRouter()
	router.Use(
		RequestID(),
		RequestLogger(logger),
		Recover(logger),
		CORS(deps.Config.Server.AllowedOrigins),
	)

	router.Handler(NewAuthHandler(AuthOpts{
		Service:     deps.Service,
		Engine:      deps.Engine,
		Credentials: deps.Credentials,
		Server:      deps.Config.Server,
		TTL:         deps.Config.Sessions.CredentialTTL.Duration,
		Logger:      logger,
	}))

	api := NewAPIHandler(deps.Engine, tokens, logger)
	api.Register(router)

	pages, err := web.NewPages(web.Opts{
		Engine: deps.Engine,
		Token:  tokens.Resolve,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	router.Handler(pages)

	return &Server{config: deps.Config, router: router, logger: logger}, nil
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr and serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
