package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for every failed login regardless of
// cause so callers cannot tell an unknown email from a wrong password.
var ErrInvalidCredentials = goerrors.New("invalid email or password provided", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail indicates the email is already registered.
var ErrDuplicateEmail = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicatePhone indicates the phone number is already registered.
var ErrDuplicatePhone = goerrors.New("phone number is already registered", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_PHONE").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidToken covers unknown, consumed and malformed verification
// tokens. One message for every case so consumed tokens are
// indistinguishable from ones that never existed.
var ErrInvalidToken = goerrors.New("invalid token provided", goerrors.CategoryValidation).
	WithTextCode("INVALID_TOKEN").
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when an access or refresh token is past its TTL.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or its
// signature does not verify.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenBlacklisted is returned when a refresh token was rotated or
// revoked and is presented again.
var ErrTokenBlacklisted = goerrors.New("token has been revoked", goerrors.CategoryAuth).
	WithTextCode("TOKEN_BLACKLISTED").
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidOtp covers unknown codes and codes owned by another account.
var ErrInvalidOtp = goerrors.New("invalid otp provided", goerrors.CategoryValidation).
	WithTextCode("INVALID_OTP").
	WithCode(goerrors.CodeBadRequest)

// ErrOtpExpired is returned when a passcode is older than its window.
var ErrOtpExpired = goerrors.New("otp expired", goerrors.CategoryValidation).
	WithTextCode("OTP_EXPIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrOtpAlreadyUsed is returned when a passcode is verified a second time.
var ErrOtpAlreadyUsed = goerrors.New("otp was already used", goerrors.CategoryConflict).
	WithTextCode("OTP_ALREADY_USED").
	WithCode(goerrors.CodeBadRequest)

// ErrOtpNotVerified is returned when a password reset is attempted with a
// passcode that never went through verification.
var ErrOtpNotVerified = goerrors.New("unverified otp provided", goerrors.CategoryValidation).
	WithTextCode("OTP_NOT_VERIFIED").
	WithCode(goerrors.CodeBadRequest)

// ErrTokenPairMismatch is returned when a refresh token was issued to a
// different account than the access token presented alongside it.
var ErrTokenPairMismatch = goerrors.New("token pair mismatch", goerrors.CategoryAuth).
	WithTextCode("TOKEN_PAIR_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingCredential is returned when an expected cookie or bearer token
// is absent from the request.
var ErrMissingCredential = goerrors.New("authentication credentials were not provided", goerrors.CategoryAuth).
	WithTextCode("MISSING_CREDENTIAL").
	WithCode(goerrors.CodeUnauthorized)

// ErrAdminPrivilegeRequired rejects admin logins for accounts that do not
// hold both the admin and superuser flags.
var ErrAdminPrivilegeRequired = goerrors.New("you don't have permission to login", goerrors.CategoryAuthz).
	WithTextCode("ADMIN_PRIVILEGE_REQUIRED").
	WithCode(goerrors.CodeForbidden)

// ErrTooManyLoginAttempts is returned once the per-account attempt counter
// crosses the cooldown ceiling.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("value cannot be an empty string", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_STRING")

// ErrMismatchedHashAndPassword is the uniform bcrypt comparison failure.
var ErrMismatchedHashAndPassword = goerrors.New("hashed password is not the hash of the given password", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")
