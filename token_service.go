package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService mints, validates and revokes access/refresh token pairs.
type TokenService interface {
	IssuePair(identity Identity) (*TokenPair, error)
	ValidateAccess(token string) (AuthClaims, error)
	ValidateRefresh(token string) (AuthClaims, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Blacklist(ctx context.Context, refreshToken string) error
}

// BlacklistStore persists refresh revocation markers. BlacklistOnce must be
// a conditional, atomic insert: it reports false when a marker for the same
// token id already exists, which is how two concurrent rotations of the
// same refresh token are kept from both succeeding.
type BlacklistStore interface {
	BlacklistOnce(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	blacklist  BlacklistStore
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, blacklist BlacklistStore, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		blacklist:  blacklist,
		logger:     logger,
	}
}

// IssuePair mints a short-lived access token and a longer-lived, revocable
// refresh token for the identity.
func (ts *TokenServiceImpl) IssuePair(identity Identity) (*TokenPair, error) {
	now := time.Now()

	access, err := ts.sign(ts.newClaims(identity, TokenTypeAccess, now, ts.accessTTL))
	if err != nil {
		return nil, err
	}

	refresh, err := ts.sign(ts.newClaims(identity, TokenTypeRefresh, now, ts.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// ValidateAccess parses an access token and returns its claims. Refresh
// tokens presented here are rejected as malformed.
func (ts *TokenServiceImpl) ValidateAccess(token string) (AuthClaims, error) {
	return ts.validate(token, TokenTypeAccess)
}

// ValidateRefresh parses a refresh token and returns its claims. It does
// not consult the blacklist; Refresh and Blacklist do.
func (ts *TokenServiceImpl) ValidateRefresh(token string) (AuthClaims, error) {
	return ts.validate(token, TokenTypeRefresh)
}

// Refresh rotates a refresh token: the presented token is blacklisted
// first, then a new pair is minted for the same identity. A token that was
// already rotated or revoked fails with ErrTokenBlacklisted.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := ts.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	fresh, err := ts.blacklist.BlacklistOnce(ctx, userID, claims.TokenID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to blacklist rotated refresh token")
	}
	if !fresh {
		ts.logger.Warn("refresh token replay detected", "jti", claims.TokenID(), "user_id", claims.UserID())
		return nil, ErrTokenBlacklisted
	}

	return ts.IssuePair(claimsIdentity{claims})
}

// Blacklist revokes a refresh token. Revoking an expired or already
// blacklisted token is a no-op; a token that does not parse at all is an
// error.
func (ts *TokenServiceImpl) Blacklist(ctx context.Context, refreshToken string) error {
	// expired tokens can still be revoked, skip claim validation
	token, err := jwt.ParseWithClaims(refreshToken, &JWTClaims{}, ts.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || claims.TokenType() != TokenTypeRefresh || claims.TokenID() == "" {
		return ErrTokenMalformed
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrTokenMalformed
	}

	if _, err := ts.blacklist.BlacklistOnce(ctx, userID, claims.TokenID()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to blacklist refresh token")
	}

	return nil
}

func (ts *TokenServiceImpl) newClaims(identity Identity, tokenType string, now time.Time, ttl time.Duration) *JWTClaims {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UID:         identity.ID(),
		Type:        tokenType,
		IsAdmin:     identity.IsAdmin(),
		IsSuperuser: identity.IsSuperuser(),
	}
}

func (ts *TokenServiceImpl) sign(claims *JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) validate(tokenString, wantType string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, ts.keyFunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.TokenType() != wantType {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		ts.logger.Error("token service encountered unexpected signing method", "alg", t.Header["alg"])
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return ts.signingKey, nil
}

// claimsIdentity adapts validated refresh claims back into an Identity so
// a rotation can mint the next pair without a store round-trip.
type claimsIdentity struct {
	claims AuthClaims
}

func (c claimsIdentity) ID() string        { return c.claims.UserID() }
func (c claimsIdentity) Email() string     { return "" }
func (c claimsIdentity) IsAdmin() bool     { return c.claims.Admin() }
func (c claimsIdentity) IsSuperuser() bool { return c.claims.Superuser() }
