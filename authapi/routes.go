package authapi

// Route path constants of the remote API
const (
	// Auth Routes
	RouteLogin                = "/auth/login"
	RouteRegister             = "/auth/register"
	RouteRefresh              = "/auth/refresh-token"
	RouteVerifyToken          = "/auth/verify-token"
	RoutePasswordResetRequest = "/auth/password-reset-request"
	RoutePasswordReset        = "/auth/password-reset"

	// User Routes
	RouteMe = "/users/me"

	// Operational Routes
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteMetrics       = "/metrics"
)
