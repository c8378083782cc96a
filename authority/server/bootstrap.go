package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/authority/auth"
	"github.com/jrsteele09/go-session-client/authority/token"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/jrsteele09/go-session-client/authority/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-session-client/authority/token/refresh/repofake"
	"github.com/jrsteele09/go-session-client/authority/token/reset"
	resetrepofake "github.com/jrsteele09/go-session-client/authority/token/reset/repofake"
	"github.com/jrsteele09/go-session-client/authority/users"
	fakeuserrepo "github.com/jrsteele09/go-session-client/authority/users/repofake"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog"
)

// NewAuthService wires the auth service from configuration. State is held in
// memory and lost on restart.
func NewAuthService(cfg config.AuthorityConfig, logger zerolog.Logger) (*auth.Service, users.Repo, error) {
	signingKey, err := loadSigningKey(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	signer := keys.NewSigner(signingKey)
	revoked := token.NewInMemoryRevokedUsers(cfg.GetAccessTokenExpiry())
	userRepo := fakeuserrepo.NewFakeUserRepo()
	refreshTokens := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(),
		refresh.WithExpiry(cfg.GetRefreshTokenExpiry()),
		refresh.WithTokenLength(cfg.GetRefreshTokenLength()),
	)
	resetTokens := reset.NewManager(resetrepofake.NewFakeResetTokenRepo(), reset.WithExpiry(cfg.GetResetTokenExpiry()))

	svc, err := auth.NewService(
		auth.Repos{Users: userRepo},
		auth.Tokens{
			Access:   token.NewCreator(signer, cfg.GetIssuer(), cfg.GetAudience(), token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry())),
			Verifier: token.NewVerifier(cfg.GetIssuer(), cfg.GetAudience(), signer.PublicKey(), revoked, nil),
			Signer:   signer,
			Revoked:  revoked,
			Refresh:  refreshTokens,
			Reset:    resetTokens,
		},
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("[NewAuthService] %w", err)
	}
	return svc, userRepo, nil
}

func loadSigningKey(cfg config.AuthorityConfig, logger zerolog.Logger) (*keys.SigningKey, error) {
	if pemKey := cfg.GetSigningKeyPEM(); pemKey != "" {
		key, err := keys.ParsePEM("", pemKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		logger.Info().Str("kid", key.ID).Msg("loaded signing key")
		return key, nil
	}
	logger.Warn().Msg("SIGNING_KEY_PEM not set, generating an ephemeral signing key")
	key, err := keys.Generate("", 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return key, nil
}

// InitialiseAdmin creates an admin account with a generated password when
// email is not registered yet. The password is returned once and never stored
// in clear.
func InitialiseAdmin(ctx context.Context, svc *auth.Service, repo users.Repo, email string) (generatedPassword string, err error) {
	if _, err := repo.GetByEmail(users.NormalizeEmail(email)); err == nil {
		return "", nil
	} else if !errors.Is(err, errors.ErrUserNotFound) {
		return "", fmt.Errorf("failed to look up admin: %w", err)
	}

	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate admin password: %w", err)
	}
	// Suffix satisfies the upper, lower and digit rule whatever the random part holds
	generatedPassword = base64.RawURLEncoding.EncodeToString(b) + "Aa1"

	_, err = svc.Register(ctx, authapi.RegisterRequest{
		Email:     email,
		Password:  generatedPassword,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      authapi.RoleAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create admin: %w", err)
	}
	return generatedPassword, nil
}
