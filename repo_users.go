package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

var ActivateUserSQL = `UPDATE "users" AS "usr"
SET
	"is_active" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

// Users is the credential store for accounts.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	CreateSuperuser(ctx context.Context, user *User) (*User, error)

	Activate(ctx context.Context, id uuid.UUID) error
	ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	// DeleteCascade removes the user and every token and otp row it owns
	// in a single transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx creates the account after checking both unique identifiers so
// callers get a precise duplicate error instead of a bare constraint
// violation. The unique indexes still back this up under races.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	if taken, err := a.identifierTaken(ctx, tx, "email", user.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateEmail
	}

	if user.Phone != "" {
		if taken, err := a.identifierTaken(ctx, tx, "phone", user.Phone); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrDuplicatePhone
		}
	}

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		// two registrations can race past the pre-checks; the unique
		// indexes catch that, and callers still get the precise sentinel
		if sentinel := duplicateSentinel(err); sentinel != nil {
			return nil, sentinel
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return record, nil
}

// duplicateSentinel maps a unique-index violation onto the matching
// duplicate error. Covers the sqlite ("UNIQUE constraint failed:
// users.email") and postgres ("duplicate key value violates unique
// constraint \"users_phone_key\"") message shapes.
func duplicateSentinel(err error) *goerrors.Error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique constraint") && !strings.Contains(msg, "duplicate key") {
		return nil
	}

	switch {
	case strings.Contains(msg, "phone"):
		return ErrDuplicatePhone
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	}

	return nil
}

// CreateSuperuser registers an account that is active, admin and superuser
// from the start. Used for bootstrap, never reachable from the HTTP surface.
func (a *users) CreateSuperuser(ctx context.Context, user *User) (*User, error) {
	user.IsActive = true
	user.IsAdmin = true
	user.IsSuperuser = true
	return a.Register(ctx, user)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Activate(ctx context.Context, id uuid.UUID) error {
	return a.ActivateTx(ctx, a.db, id)
}

// ActivateTx is an idempotent flip of is_active; activating an already
// active account changes nothing.
func (a *users) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewRaw(ActivateUserSQL, id.String()).Exec(ctx)
	return err
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE ("usr".id = ?);
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(user.ID.String()))

	return err
}

func (a *users) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*Otp)(nil)).
			Where("user_id = ?", id).Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*Token)(nil)).
			Where("user_id = ?", id).Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewDelete().Model((*User)(nil)).
			Where("id = ?", id).Exec(ctx)
		return err
	})
}

func (a *users) identifierTaken(ctx context.Context, tx bun.IDB, column, value string) (bool, error) {
	exists, err := tx.NewSelect().Model((*User)(nil)).
		Where("?TableAlias."+column+" = ?", value).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check "+column+" uniqueness")
	}
	return exists, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
