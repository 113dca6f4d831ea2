package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Otps stores forgot-password passcodes.
type Otps interface {
	repository.Repository[*Otp]

	CreateForUser(ctx context.Context, userID uuid.UUID, code string) (*Otp, error)
	CreateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string) (*Otp, error)

	GetByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*Otp, error)
	GetByUserAndCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string) (*Otp, error)

	// MarkVerified flips is_valid false -> true at most once; it reports
	// false when the row was already verified or raced by another request.
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error)

	// ConsumeTx deletes the row once the reset completes.
	ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	// DeleteOlderThan removes every passcode created before the cutoff,
	// regardless of state.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type otps struct {
	repository.Repository[*Otp]
	db *bun.DB
}

var (
	_ Otps                        = (*otps)(nil)
	_ repository.Repository[*Otp] = (*otps)(nil)
)

func NewOtpsRepository(db *bun.DB) Otps {
	repo := repository.NewRepository[*Otp](db, repository.ModelHandlers[*Otp]{
		NewRecord: func() *Otp { return &Otp{} },
		GetID: func(o *Otp) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Otp, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "otp"
		},
	})

	return &otps{
		Repository: repo,
		db:         db,
	}
}

func (r *otps) CreateForUser(ctx context.Context, userID uuid.UUID, code string) (*Otp, error) {
	return r.CreateForUserTx(ctx, r.db, userID, code)
}

func (r *otps) CreateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string) (*Otp, error) {
	record := &Otp{
		ID:      uuid.New(),
		Otp:     code,
		UserID:  userID,
		IsValid: false,
	}

	created, err := r.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist otp")
	}

	return created, nil
}

func (r *otps) GetByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*Otp, error) {
	return r.GetByUserAndCodeTx(ctx, r.db, userID, code)
}

func (r *otps) GetByUserAndCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string) (*Otp, error) {
	record := &Otp{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.otp = ?", code).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidOtp
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load otp")
	}

	return record, nil
}

func (r *otps) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.MarkVerifiedTx(ctx, r.db, id)
}

func (r *otps) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	now := time.Now()
	res, err := tx.NewUpdate().Model((*Otp)(nil)).
		Set("is_valid = ?", true).
		Set("updated_at = ?", now).
		Where("id = ? AND is_valid = FALSE", id).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify otp")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read otp verify result")
	}

	return affected > 0, nil
}

func (r *otps) ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().Model((*Otp)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *otps) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*Otp)(nil)).
		Where("created_at <= ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
