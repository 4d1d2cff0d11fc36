package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type CompletePasswordResetMessage struct {
	Email      string `json:"email"`
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(*CompletePasswordResetResponse)
}

func (e CompletePasswordResetMessage) Type() string { return "account.password_reset_complete" }

type CompletePasswordResetResponse struct {
	Message string
}

type CompletePasswordResetHandler struct {
	repo     RepositoryManager
	reporter Reporter
	logger   Logger
}

// NewCompletePasswordResetHandler creates a handler with sane defaults.
func NewCompletePasswordResetHandler(repo RepositoryManager) *CompletePasswordResetHandler {
	return &CompletePasswordResetHandler{
		repo:     repo,
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

func (h *CompletePasswordResetHandler) WithReporter(reporter Reporter) *CompletePasswordResetHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *CompletePasswordResetHandler) WithLogger(logger Logger) *CompletePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CompletePasswordResetHandler) Execute(ctx context.Context, event CompletePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset completion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompletePasswordResetHandler) execute(ctx context.Context, event CompletePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePassword(event.Password); err != nil {
		return newValidationError("some fields failed validation", map[string]string{
			"password": err.Error(),
		})
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().FindByEmailAndResetToken(ctx, event.Email, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrForbidden
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		// The token matched, so the caller may learn it is merely stale.
		if user.ResetExpired() {
			return ErrResetTokenExpired
		}

		// SetPassword consumes the reset token and its expiry. Existing
		// sessions stay valid in this flow, unlike the authenticated
		// password change; pending product confirmation.
		if err := user.SetPassword(event.Password); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
		}

		if _, err := h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store new password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return ClassifyStoreError(err, h.reporter)
	}

	if event.OnResponse != nil {
		event.OnResponse(&CompletePasswordResetResponse{
			Message: "Password successfully changed. You can now log in with your new password",
		})
	}

	return nil
}
