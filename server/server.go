package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jobmesh/mcp-bridge/auth"
	"github.com/jobmesh/mcp-bridge/internal/config"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	auth       *auth.AuthorizationService
	mcpHandler http.Handler
	logger     zerolog.Logger
}

type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config config.Config, authService *auth.AuthorizationService, mcpHandler http.Handler, options ...ServerOption) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] authService is required")
	}
	if mcpHandler == nil {
		return nil, errors.New("[Server New] mcpHandler is required")
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     config,
		auth:       authService,
		mcpHandler: mcpHandler,
		logger:     zerolog.Nop(),
	}
	s.env = config.GetEnv()

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Msg(fmt.Sprintf("[%-7s] %s", parts[0], parts[1]))
		} else {
			s.logger.Info().Msg(fmt.Sprintf("[%-7s] %s", "", parts[0]))
		}
	}
}

// issuer returns the public base URL used as the token issuer and the
// root of every advertised endpoint.
func (s *Server) issuer() string {
	return strings.TrimSuffix(s.config.GetBaseURL(), "/")
}
