package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-client/authority/auth"
	"github.com/jrsteele09/go-session-client/internal/obs"
	"github.com/rs/zerolog"
)

const envDev = "DEV"

// Server serves the authority's HTTP API
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	auth    *auth.Service
	logger  zerolog.Logger
	metrics *obs.HTTPMetrics
	limiter *ipLimiter
}

type ServerOption func(*Server)

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics instruments every route and serves the registry on /metrics
func WithMetrics(m *obs.HTTPMetrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRateLimit limits login and reset requests per client IP
func WithRateLimit(perSecond, burst int) ServerOption {
	return func(s *Server) {
		s.limiter = newIPLimiter(perSecond, burst)
	}
}

func New(env string, authService *auth.Service, opts ...ServerOption) *Server {
	s := &Server{
		env:     env,
		mux:     http.NewServeMux(),
		auth:    authService,
		logger:  zerolog.Nop(),
		limiter: newIPLimiter(5, 10),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	if s.metrics != nil {
		handler = s.metrics.Instrument(pattern, handler)
	}
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

func (s *Server) logRoutes() {
	if s.env != envDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Msgf("[%s] %s", colourMethod(parts[0]), parts[1])
		} else {
			s.logger.Info().Msgf("[%s] %s", colourMethod(""), parts[0])
		}
	}
}
