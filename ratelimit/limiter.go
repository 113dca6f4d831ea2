// Package ratelimit bounds brute-force and enumeration attempts against
// the auth endpoints. Limits are keyed by operation scope plus client
// identity; each scope gets its own requests/window budget.
package ratelimit

import (
	"context"
	"time"
)

// Operation scopes the middleware keys on. Handlers register under one of
// these so operators can budget each endpoint category separately.
const (
	ScopeLogin      = "login"
	ScopeRegister   = "register"
	ScopeVerify     = "verify"
	ScopeRefresh    = "refresh"
	ScopeForgot     = "forgot"
	ScopeAdminLogin = "adminlogin"
)

// Limiter is a fixed-window counter over an opaque key.
type Limiter interface {
	// Allow reports whether the request under key fits the window, and if
	// not, how long until the window resets.
	Allow(ctx context.Context, key string, now time.Time) (bool, time.Duration, error)
}

// Rate is a requests/window budget for one scope.
type Rate struct {
	Requests int
	Window   time.Duration
}

// DefaultRates mirror the per-scope throttles of the HTTP surface.
func DefaultRates() map[string]Rate {
	return map[string]Rate{
		ScopeLogin:      {Requests: 10, Window: time.Minute},
		ScopeRegister:   {Requests: 5, Window: time.Minute},
		ScopeVerify:     {Requests: 10, Window: time.Minute},
		ScopeRefresh:    {Requests: 30, Window: time.Minute},
		ScopeForgot:     {Requests: 5, Window: time.Minute},
		ScopeAdminLogin: {Requests: 5, Window: time.Minute},
	}
}
