package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Registrations racing past the identifierTaken pre-checks land on the
// unique indexes; the violation has to surface as the same sentinel the
// pre-check would have produced.
func TestDuplicateSentinel(t *testing.T) {
	t.Run("sqlite email violation", func(t *testing.T) {
		err := errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")
		assert.Equal(t, ErrDuplicateEmail, duplicateSentinel(err))
	})

	t.Run("sqlite phone violation", func(t *testing.T) {
		err := errors.New("constraint failed: UNIQUE constraint failed: users.phone (2067)")
		assert.Equal(t, ErrDuplicatePhone, duplicateSentinel(err))
	})

	t.Run("postgres email violation", func(t *testing.T) {
		err := errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE=23505)`)
		assert.Equal(t, ErrDuplicateEmail, duplicateSentinel(err))
	})

	t.Run("postgres phone violation", func(t *testing.T) {
		err := errors.New(`ERROR: duplicate key value violates unique constraint "users_phone_key" (SQLSTATE=23505)`)
		assert.Equal(t, ErrDuplicatePhone, duplicateSentinel(err))
	})

	t.Run("unrelated errors pass through", func(t *testing.T) {
		assert.Nil(t, duplicateSentinel(errors.New("database is locked")))
		assert.Nil(t, duplicateSentinel(errors.New("NOT NULL constraint failed: users.email")))
	})
}
