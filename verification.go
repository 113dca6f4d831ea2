package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Verification tokens are derived from user state with a keyed hash, in
// the shape "<ts36>-<mac>". The raw value is pushed to the notifier and a
// copy is persisted as a valid Token row; consuming the row is what makes
// the token single-use, the MAC check guards against forged values.

// MakeVerificationToken derives an unguessable activation token for the
// given user at the given issue time.
func MakeVerificationToken(key []byte, user *User, issuedAt time.Time) string {
	ts := strconv.FormatInt(issuedAt.Unix(), 36)
	return ts + "-" + verificationMAC(key, user, ts)
}

// CheckVerificationToken re-derives the MAC and compares it in constant
// time. It does not consult the store; callers still need to consume the
// persisted row.
func CheckVerificationToken(key []byte, user *User, token string) bool {
	ts, mac, found := strings.Cut(token, "-")
	if !found || ts == "" || mac == "" {
		return false
	}

	if _, err := strconv.ParseInt(ts, 36, 64); err != nil {
		return false
	}

	expected := verificationMAC(key, user, ts)
	return hmac.Equal([]byte(expected), []byte(mac))
}

func verificationMAC(key []byte, user *User, ts string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(user.ID.String()))
	h.Write([]byte("|"))
	h.Write([]byte(ts))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatBool(user.IsActive)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
