package server

import (
	"github.com/jrsteele09/go-session-client/authapi"
)

func (s *Server) initRoutes() {
	// Auth routes
	s.RegisterRouteFunc("POST "+authapi.RouteLogin, ChainMiddleware(s.Login(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteFunc("POST "+authapi.RouteRegister, ChainMiddleware(s.Register(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authapi.RouteRefresh, ChainMiddleware(s.RefreshToken(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authapi.RouteVerifyToken, ChainMiddleware(s.VerifyToken(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("POST "+authapi.RoutePasswordResetRequest, ChainMiddleware(s.PasswordResetRequest(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteFunc("POST "+authapi.RoutePasswordReset, ChainMiddleware(s.PasswordReset(), s.APIMiddleware()...))

	// User routes
	s.RegisterRouteFunc("GET "+authapi.RouteMe, ChainMiddleware(s.Me(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("PATCH "+authapi.RouteMe, ChainMiddleware(s.UpdateMe(), s.APIMiddleware(s.RequireAuth)...))

	// Key distribution
	s.RegisterRouteFunc("GET "+authapi.RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))

	if s.metrics != nil {
		s.mux.Handle("GET "+authapi.RouteMetrics, s.metrics.Handler())
		s.routes = append(s.routes, "GET "+authapi.RouteMetrics)
	}
}
