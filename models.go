package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Accounts are created inactive and become
// active exactly once, when the verification token issued at registration
// is consumed.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone,notnull,unique" json:"phone,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	IsActive       bool       `bun:"is_active" json:"is_active,omitempty"`
	IsAdmin        bool       `bun:"is_admin" json:"is_admin,omitempty"`
	IsSuperuser    bool       `bun:"is_superuser" json:"is_superuser,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Token persists account verification tokens and refresh blacklist markers.
// Verification rows are created valid and flipped invalid when consumed.
// Blacklist rows are created invalid; their presence alone revokes the
// refresh token carrying the same value.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IsValid       bool       `bun:"is_valid" json:"is_valid,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// OtpTTL is how long a passcode stays redeemable after creation.
const OtpTTL = 5 * time.Minute

// Otp is a single-use 6 digit passcode for the forgot-password flow.
// IsValid starts false and flips true exactly once on verification.
type Otp struct {
	bun.BaseModel `bun:"table:otps,alias:otp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Otp           string     `bun:"otp,notnull" json:"otp,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IsValid       bool       `bun:"is_valid" json:"is_valid,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsExpired reports whether the passcode is past its 5 minute window.
// Codes are redeemable strictly below the threshold: an age of exactly
// OtpTTL fails, 299.999s passes.
func (o *Otp) IsExpired(now time.Time) bool {
	if o.CreatedAt == nil {
		return true
	}
	return now.Sub(*o.CreatedAt) >= OtpTTL
}
