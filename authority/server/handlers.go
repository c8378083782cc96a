package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/authority/auth"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

// VerifyResponse is returned by the verify-token route
type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  claims.User `json:"user"`
}

// Login exchanges email and password for tokens
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LoginRequest
		if !s.readJSON(w, r, &req) {
			return
		}
		tokens, err := s.auth.Login(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, tokens)
	}
}

// Register creates an account
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RegisterRequest
		if !s.readJSON(w, r, &req) {
			return
		}
		created, err := s.auth.Register(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *Server) RefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RefreshRequest
		if !s.readJSON(w, r, &req) {
			return
		}
		tokens, err := s.auth.Refresh(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, tokens)
	}
}

// VerifyToken reports the identity of an accepted bearer token. RequireAuth
// has already rejected anything else.
func (s *Server) VerifyToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := claimsFromContext(r.Context())
		if c == nil {
			writeUnauthorized(w, "Not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, VerifyResponse{Valid: true, User: c.User()})
	}
}

func (s *Server) PasswordResetRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.PasswordResetRequest
		if !s.readJSON(w, r, &req) {
			return
		}
		if err := s.auth.RequestPasswordReset(r.Context(), req); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authapi.AcceptedResponse{Message: "If the account exists, a reset link has been sent"})
	}
}

func (s *Server) PasswordReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.PasswordResetConfirm
		if !s.readJSON(w, r, &req) {
			return
		}
		if err := s.auth.ResetPassword(r.Context(), req); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authapi.AcceptedResponse{Message: "Password updated"})
	}
}

// Me returns the authenticated user's profile
func (s *Server) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			writeUnauthorized(w, "Not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, user.Profile())
	}
}

// UpdateMe applies a partial update to the authenticated user's profile
func (s *Server) UpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			writeUnauthorized(w, "Not authenticated")
			return
		}
		var req authapi.ProfileUpdateRequest
		if !s.readJSON(w, r, &req) {
			return
		}
		updated, err := s.auth.UpdateProfile(r.Context(), user.ID, req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// JWKS publishes the key access tokens are verified with
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, s.auth.JWKS())
	}
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("Invalid JSON body"))
		return false
	}
	return true
}

// writeError maps service errors onto status codes and the error envelope
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *auth.ValidationErr
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, authapi.NewValidationError(verr.Fields))
	case errors.Is(err, errors.ErrInvalidCredentials):
		writeUnauthorized(w, "Incorrect email or password")
	case errors.Is(err, errors.ErrInvalidRefreshToken), errors.Is(err, errors.ErrRefreshTokenExpired):
		writeUnauthorized(w, "Invalid or expired refresh token")
	case errors.Is(err, errors.ErrInvalidToken), errors.Is(err, errors.ErrTokenExpired):
		writeUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, errors.ErrInvalidResetToken):
		writeUnauthorized(w, "Invalid or expired reset token")
	case errors.Is(err, errors.ErrUserExists):
		writeJSON(w, http.StatusBadRequest, detail("Email already registered"))
	case errors.Is(err, errors.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, detail("User not found"))
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, detail("Internal server error"))
	}
}

func detail(message string) authapi.ErrorBody {
	return authapi.NewMessageError(message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, detail(message))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
