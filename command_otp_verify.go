package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyOtpMessage struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

func (e VerifyOtpMessage) Type() string { return "otp.verify" }

// VerifyOtpHandler is step two of the forgot-password flow: it marks a
// live passcode as verified, at most once. Expired codes and codes that
// were verified before are rejected.
type VerifyOtpHandler struct {
	repo RepositoryManager
}

func NewVerifyOtpHandler(repo RepositoryManager) *VerifyOtpHandler {
	return &VerifyOtpHandler{repo: repo}
}

func (h *VerifyOtpHandler) Execute(ctx context.Context, event VerifyOtpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during otp verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyOtpHandler) execute(ctx context.Context, event VerifyOtpMessage) error {
	if !IsWellFormedOtp(event.Otp) {
		return ErrInvalidOtp
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrInvalidOtp
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for otp verification")
		}

		record, err := h.repo.Otps().GetByUserAndCodeTx(ctx, tx, user.ID, event.Otp)
		if err != nil {
			return err
		}

		if record.IsExpired(time.Now()) {
			return ErrOtpExpired
		}

		// conditional flip: loses against a concurrent verification of
		// the same code, and against any earlier one
		verified, err := h.repo.Otps().MarkVerifiedTx(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		if !verified {
			return ErrOtpAlreadyUsed
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "otp verification transaction failed")
	}

	return nil
}
