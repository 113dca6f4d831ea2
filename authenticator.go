package identity

import (
	"context"
)

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	AdminLogin(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Auther authenticates credentials and drives the token lifecycle. The
// transport decision — bearer payloads for regular users, cookies for
// admins — belongs to the HTTP controller; Auther only decides who gets a
// pair at all.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and mints a token pair.
func (s *Auther) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("login verify identity error", "error", err)
		return nil, err
	}

	pair, err := s.tokenService.IssuePair(identity)
	if err != nil {
		s.logger.Error("login failed to issue token pair", "error", err)
		return nil, err
	}

	return pair, nil
}

// AdminLogin verifies the credentials and requires the account to hold
// BOTH the admin and superuser flags before minting a pair.
func (s *Auther) AdminLogin(ctx context.Context, email, password string) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("admin login verify identity error", "error", err)
		return nil, err
	}

	if !identity.IsAdmin() || !identity.IsSuperuser() {
		s.logger.Warn("admin login rejected for non-admin account", "user_id", identity.ID())
		return nil, ErrAdminPrivilegeRequired
	}

	pair, err := s.tokenService.IssuePair(identity)
	if err != nil {
		s.logger.Error("admin login failed to issue token pair", "error", err)
		return nil, err
	}

	return pair, nil
}

// Refresh rotates the pair; the presented refresh token is revoked before
// the replacement is returned.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.tokenService.Refresh(ctx, refreshToken)
}

// Logout revokes the refresh token. Revoking twice is a no-op.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenService.Blacklist(ctx, refreshToken)
}

var _ Authenticator = (*Auther)(nil)
