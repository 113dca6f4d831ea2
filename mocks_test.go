package identity_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	identity "github.com/selvahq/go-identity"
)

// MockIdentity implements identity.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) IsAdmin() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockIdentity) IsSuperuser() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLogger implements identity.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger is a quiet logger for tests that don't assert on logging
type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
func (noopLogger) Error(format string, args ...any) {}

// MockIdentityProvider implements identity.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (identity.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.Identity), args.Error(1)
}

// MockTokenService implements identity.TokenService for testing
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssuePair(id identity.Identity) (*identity.TokenPair, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.TokenPair), args.Error(1)
}

func (m *MockTokenService) ValidateAccess(token string) (identity.AuthClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.AuthClaims), args.Error(1)
}

func (m *MockTokenService) ValidateRefresh(token string) (identity.AuthClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.AuthClaims), args.Error(1)
}

func (m *MockTokenService) Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.TokenPair), args.Error(1)
}

func (m *MockTokenService) Blacklist(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// MockBlacklistStore implements identity.BlacklistStore for testing
type MockBlacklistStore struct {
	mock.Mock
}

func (m *MockBlacklistStore) BlacklistOnce(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	args := m.Called(ctx, userID, tokenID)
	return args.Bool(0), args.Error(1)
}

// memoryBlacklist is a map-backed BlacklistStore for token service tests
// that need real at-most-once semantics without a database.
type memoryBlacklist struct {
	seen map[string]bool
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{seen: map[string]bool{}}
}

func (m *memoryBlacklist) BlacklistOnce(_ context.Context, _ uuid.UUID, tokenID string) (bool, error) {
	if m.seen[tokenID] {
		return false, nil
	}
	m.seen[tokenID] = true
	return true, nil
}

// recordingNotifier captures every payload the flows push out-of-band so
// tests can fish raw verification tokens and passcodes back out.
type recordingNotifier struct {
	recipients []string
	payloads   []string
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, payload string) error {
	n.recipients = append(n.recipients, recipient)
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) last() string {
	if len(n.payloads) == 0 {
		return ""
	}
	return n.payloads[len(n.payloads)-1]
}

// testConfig is a fixed identity.Config for tests
type testConfig struct {
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey != "" {
		return c.signingKey
	}
	return "test-signing-key"
}

func (c testConfig) GetIssuer() string     { return "test-issuer" }
func (c testConfig) GetAudience() []string { return []string{"test-audience"} }

func (c testConfig) GetAccessTokenTTL() time.Duration {
	if c.accessTTL != 0 {
		return c.accessTTL
	}
	return 5 * time.Minute
}

func (c testConfig) GetRefreshTokenTTL() time.Duration {
	if c.refreshTTL != 0 {
		return c.refreshTTL
	}
	return 24 * time.Hour
}

func (c testConfig) GetAccessCookieName() string  { return "access_token" }
func (c testConfig) GetRefreshCookieName() string { return "refresh_token" }
func (c testConfig) GetCookieSecure() bool        { return true }
func (c testConfig) GetCookieHTTPOnly() bool      { return true }
func (c testConfig) GetCookieSameSite() string    { return "Lax" }
