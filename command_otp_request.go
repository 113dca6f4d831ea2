package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrInvalidForgotRequest is the generic failure for the forgot-password
// entry point. Unknown emails get the same error as any other bad input to
// keep the endpoint from confirming which addresses hold accounts.
var ErrInvalidForgotRequest = goerrors.New("invalid request", goerrors.CategoryValidation).
	WithTextCode("INVALID_REQUEST").
	WithCode(goerrors.CodeBadRequest)

type RequestOtpMessage struct {
	Email string `json:"email"`
}

func (e RequestOtpMessage) Type() string { return "otp.request" }

// RequestOtpHandler starts the forgot-password flow: generate a passcode,
// persist it unverified and push the raw code to the notifier.
type RequestOtpHandler struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
}

func NewRequestOtpHandler(repo RepositoryManager, notifier Notifier) *RequestOtpHandler {
	return &RequestOtpHandler{
		repo:     repo,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *RequestOtpHandler) WithLogger(logger Logger) *RequestOtpHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestOtpHandler) Execute(ctx context.Context, event RequestOtpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during otp request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestOtpHandler) execute(ctx context.Context, event RequestOtpMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}
	code := ""

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrInvalidForgotRequest
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for otp request")
		}

		if code, err = GenerateOtp(); err != nil {
			return err
		}

		if _, err := h.repo.Otps().CreateForUserTx(ctx, tx, user.ID, code); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "otp request transaction failed")
	}

	if err := h.notifier.Notify(ctx, user.Email, code); err != nil {
		h.logger.Error("failed to deliver otp", "email", user.Email, "error", err)
	}

	return nil
}
