package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens stores verification tokens and refresh blacklist markers.
type Tokens interface {
	repository.Repository[*Token]
	BlacklistStore

	CreateVerification(ctx context.Context, userID uuid.UUID, token string) (*Token, error)
	CreateVerificationTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) (*Token, error)

	// Consume flips a still-valid row to invalid and returns it. The flip
	// is a conditional update so two concurrent submissions of the same
	// token cannot both succeed.
	Consume(ctx context.Context, token string) (*Token, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, token string) (*Token, error)

	// DeleteInvalidBefore removes consumed verification tokens and
	// blacklist markers created before the cutoff. Markers younger than
	// the refresh TTL must be kept or a rotated token could be replayed
	// after the sweep.
	DeleteInvalidBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (r *tokens) CreateVerification(ctx context.Context, userID uuid.UUID, token string) (*Token, error) {
	return r.CreateVerificationTx(ctx, r.db, userID, token)
}

func (r *tokens) CreateVerificationTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) (*Token, error) {
	record := &Token{
		ID:      uuid.New(),
		Token:   token,
		UserID:  userID,
		IsValid: true,
	}

	created, err := r.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verification token")
	}

	return created, nil
}

func (r *tokens) Consume(ctx context.Context, token string) (*Token, error) {
	return r.ConsumeTx(ctx, r.db, token)
}

func (r *tokens) ConsumeTx(ctx context.Context, tx bun.IDB, token string) (*Token, error) {
	now := time.Now()
	res, err := tx.NewUpdate().Model((*Token)(nil)).
		Set("is_valid = ?", false).
		Set("updated_at = ?", now).
		Where("token = ? AND is_valid = TRUE", token).
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume token")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read consume result")
	}

	if affected == 0 {
		// unknown, already consumed, or raced: all the same to callers
		return nil, ErrInvalidToken
	}

	record := &Token{}
	if err := tx.NewSelect().Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load consumed token")
	}

	return record, nil
}

// BlacklistOnce inserts a revocation marker keyed by the refresh token id.
// The unique index on the token column turns the insert into a
// compare-and-set: a second insert for the same id affects zero rows.
func (r *tokens) BlacklistOnce(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	record := &Token{
		ID:      uuid.New(),
		Token:   tokenID,
		UserID:  userID,
		IsValid: false,
	}

	res, err := r.db.NewInsert().Model(record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert blacklist marker")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read blacklist result")
	}

	return affected > 0, nil
}

func (r *tokens) DeleteInvalidBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*Token)(nil)).
		Where("is_valid = FALSE").
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
