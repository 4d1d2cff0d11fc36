package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	Email      string `json:"email"`
	Token      string `json:"token"`
	OnResponse func(*ConfirmEmailResponse)
}

func (e ConfirmEmailMessage) Type() string { return "account.email_confirm" }

type ConfirmEmailResponse struct {
	User    *User
	Message string
}

type ConfirmEmailHandler struct {
	repo     RepositoryManager
	reporter Reporter
	logger   Logger
}

// NewConfirmEmailHandler creates a handler with sane defaults.
func NewConfirmEmailHandler(repo RepositoryManager) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		repo:     repo,
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

func (h *ConfirmEmailHandler) WithReporter(reporter Reporter) *ConfirmEmailHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().FindByConfirmationToken(ctx, event.Email, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrForbidden
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for email confirmation")
		}

		user.ConfirmEmail()

		if _, err := h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store email confirmation")
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
		event.OnResponse(&ConfirmEmailResponse{
			User:    user,
			Message: "E-Mail successfully confirmed. Thank you",
		})
	}

	return nil
}
