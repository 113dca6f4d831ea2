package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyAccountMessage struct {
	Token string `json:"token"`
}

func (e VerifyAccountMessage) Type() string { return "user.verify" }

// VerifyAccountHandler consumes a verification token and activates the
// account in one transaction. A consumed or unknown token fails with the
// same generic error so callers cannot tell the two apart.
type VerifyAccountHandler struct {
	repo       RepositoryManager
	signingKey []byte
}

func NewVerifyAccountHandler(repo RepositoryManager, signingKey []byte) *VerifyAccountHandler {
	return &VerifyAccountHandler{
		repo:       repo,
		signingKey: signingKey,
	}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	if event.Token == "" {
		return ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// the conditional flip makes the token single-use; on any later
		// failure the rollback restores it
		record, err := h.repo.Tokens().ConsumeTx(ctx, tx, event.Token)
		if err != nil {
			return err
		}

		user := &User{}
		if err := tx.NewSelect().Model(user).
			Where("?TableAlias.id = ?", record.UserID).
			Limit(1).
			Scan(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for verification")
		}

		if !CheckVerificationToken(h.signingKey, user, event.Token) {
			return ErrInvalidToken
		}

		return h.repo.Users().ActivateTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account verification transaction failed")
	}

	return nil
}
