package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/authority/token"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/jrsteele09/go-session-client/authority/token/refresh"
	"github.com/jrsteele09/go-session-client/authority/token/reset"
	"github.com/jrsteele09/go-session-client/authority/users"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog"
)

const tokenTypeBearer = "bearer"

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users users.Repo
}

// Tokens groups the credential issuers the Service depends on
type Tokens struct {
	Access   *token.Creator     // Mints access tokens
	Verifier *token.Verifier    // Verifies access tokens
	Signer   keys.Signer        // Publishes the verification key
	Revoked  token.RevokedUsers // Access tokens revoked by a password reset
	Refresh  *refresh.Manager   // Opaque refresh tokens, rotated on use
	Reset    *reset.Manager     // Single use password reset tokens
}

// Service implements the account and credential operations behind the
// authority's HTTP API.
type Service struct {
	repos    Repos
	tokens   Tokens
	notifier Notifier
	logger   zerolog.Logger
	nowTime  func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens Tokens, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if tokens.Access == nil || tokens.Verifier == nil || tokens.Signer == nil {
		return nil, errors.New("[NewService] access token creator, verifier and signer are required")
	}
	if tokens.Refresh == nil {
		return nil, errors.New("[NewService] refresh token manager is required")
	}
	if tokens.Reset == nil {
		return nil, errors.New("[NewService] reset token manager is required")
	}

	s := &Service{
		repos:   repos,
		tokens:  tokens,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.logger)
	}
	return s, nil
}

// Login checks the credentials and issues an access and refresh token
func (s *Service) Login(ctx context.Context, req authapi.LoginRequest) (*authapi.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	user, err := s.repos.Users.GetByEmail(users.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrapf(err, "[Service.Login] GetByEmail")
	}
	if user.Blocked || !user.CheckPassword(req.Password) {
		return nil, errors.ErrInvalidCredentials
	}

	user.LastLogin = s.nowTime()
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "[Service.Login] Upsert")
	}

	refreshToken, err := s.tokens.Refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service.Login] refresh token")
	}
	s.logger.Info().Str("sub", user.ID).Msg("user logged in")
	return s.tokenResponse(user, refreshToken)
}

// Register creates an account. It does not log the user in.
func (s *Service) Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	email := users.NormalizeEmail(req.Email)
	if _, err := s.repos.Users.GetByEmail(email); err == nil {
		return nil, errors.ErrUserExists
	} else if !errors.Is(err, errors.ErrUserNotFound) {
		return nil, errors.Wrapf(err, "[Service.Register] GetByEmail")
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service.Register] HashPassword")
	}
	role := req.Role
	if role == "" {
		role = authapi.RoleEmployee
	}
	user := &users.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		CompanyID:    req.CompanyID,
		Role:         role,
		DateJoined:   s.nowTime(),
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "[Service.Register] Upsert")
	}

	s.logger.Info().Str("sub", user.ID).Str("role", role).Msg("user registered")
	return &authapi.RegisterResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}, nil
}

// Refresh rotates a refresh token and issues a new access token
func (s *Service) Refresh(ctx context.Context, req authapi.RefreshRequest) (*authapi.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	userID, next, err := s.tokens.Refresh.Rotate(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(userID)
	if err != nil || user.Blocked {
		_ = s.tokens.Refresh.RevokeUser(userID)
		return nil, errors.ErrInvalidRefreshToken
	}
	return s.tokenResponse(user, next)
}

// Verify validates an access token and returns the user it was issued to
func (s *Service) Verify(ctx context.Context, rawToken string) (*users.User, *claims.Claims, error) {
	c, err := s.tokens.Verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repos.Users.GetByID(c.Subject)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidToken, "unknown subject")
	}
	if user.Blocked {
		return nil, nil, errors.Wrapf(errors.ErrInvalidToken, "user blocked")
	}
	return user, c, nil
}

// RequestPasswordReset sends a reset token to the account owner. Unknown
// emails succeed silently so the endpoint does not reveal which accounts
// exist.
func (s *Service) RequestPasswordReset(ctx context.Context, req authapi.PasswordResetRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	user, err := s.repos.Users.GetByEmail(users.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil
		}
		return errors.Wrapf(err, "[Service.RequestPasswordReset] GetByEmail")
	}

	resetToken, err := s.tokens.Reset.Create(user.ID)
	if err != nil {
		return errors.Wrapf(err, "[Service.RequestPasswordReset] reset token")
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, resetToken); err != nil {
		return errors.Wrapf(err, "[Service.RequestPasswordReset] notify")
	}
	return nil
}

// ResetPassword redeems a reset token. Every credential issued to the user
// before the reset stops working.
func (s *Service) ResetPassword(ctx context.Context, req authapi.PasswordResetConfirm) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	userID, err := s.tokens.Reset.Consume(req.Token)
	if err != nil {
		return err
	}
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return errors.ErrInvalidResetToken
	}
	if err := s.setPassword(user, req.NewPassword); err != nil {
		return errors.Wrapf(err, "[Service.ResetPassword]")
	}
	if err := s.tokens.Refresh.RevokeUser(user.ID); err != nil {
		return errors.Wrapf(err, "[Service.ResetPassword] RevokeUser")
	}
	if s.tokens.Revoked != nil {
		s.tokens.Revoked.Revoke(user.ID, s.nowTime())
	}
	s.logger.Info().Str("sub", user.ID).Msg("password reset")
	return nil
}

// Profile returns the account of userID
func (s *Service) Profile(ctx context.Context, userID string) (*authapi.UserProfile, error) {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// UpdateProfile applies a partial profile update. Changing the password
// requires the current one.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req authapi.ProfileUpdateRequest) (*authapi.UserProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		email := users.NormalizeEmail(req.Email)
		if email != user.Email {
			if _, err := s.repos.Users.GetByEmail(email); err == nil {
				return nil, errors.ErrUserExists
			}
			user.Email = email
		}
	}
	if req.FirstName != "" {
		user.FirstName = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		user.LastName = strings.TrimSpace(req.LastName)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if req.NewPassword != "" {
		if !user.CheckPassword(req.CurrentPassword) {
			return nil, invalidField("currentPassword", "is incorrect")
		}
		if err := s.setPassword(user, req.NewPassword); err != nil {
			return nil, errors.Wrapf(err, "[Service.UpdateProfile]")
		}
	} else if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateProfile] Upsert")
	}

	p := user.Profile()
	return &p, nil
}

// JWKS returns the JSON Web Key Set for public key distribution
func (s *Service) JWKS() keys.JWKS {
	return s.tokens.Signer.JWKS()
}

// CleanupRevokedTokens removes expired entries from the revocation cache
func (s *Service) CleanupRevokedTokens() {
	if s.tokens.Revoked != nil {
		s.tokens.Revoked.Cleanup(s.nowTime())
	}
}

func (s *Service) setPassword(user *users.User, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrapf(err, "HashPassword")
	}
	user.PasswordHash = hash
	if err := s.repos.Users.Upsert(user); err != nil {
		return errors.Wrapf(err, "Upsert")
	}
	return nil
}

func (s *Service) tokenResponse(user *users.User, refreshToken string) (*authapi.TokenResponse, error) {
	access, ttl, err := s.tokens.Access.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrapf(err, "access token")
	}
	return &authapi.TokenResponse{
		AccessToken:  access,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(ttl.Seconds()),
		RefreshToken: &refreshToken,
	}, nil
}
