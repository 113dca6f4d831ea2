// Package identity implements account registration, credential verification
// and token lifecycle management.
//
// Accounts:
//   - Users are created inactive and activated by consuming a single-use
//     verification token that is pushed out-of-band through a Notifier.
//     Failed logins are counted on the user row and throttled with a
//     cooldown window.
//
// Tokens:
//   - TokenService issues HS256 access/refresh pairs. Refresh tokens carry
//     a jti and rotate on every use; the old jti is blacklisted with a
//     conditional insert so concurrent rotations cannot both win. Sweeper
//     removes blacklist rows once they outlive the refresh TTL.
//
// Password resets:
//   - The forgot-password flow hands out a 6-digit passcode with a five
//     minute window. The code verifies at most once and the reset consumes
//     it, so a single request authorizes a single password change.
//
// The HTTP surface lives in AuthController (Fiber). Regular users exchange
// tokens as bearer JSON; admin endpoints bind the pair to secure cookies.
// Per-endpoint request budgets are enforced by the ratelimit subpackage.
package identity
