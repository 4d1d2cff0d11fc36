package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RequestPasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(*RequestPasswordResetResponse)
}

func (e RequestPasswordResetMessage) Type() string { return "account.password_reset_request" }

type RequestPasswordResetResponse struct {
	Message string
}

type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	reporter Reporter
	logger   Logger
}

// NewRequestPasswordResetHandler creates a handler with sane defaults.
func NewRequestPasswordResetHandler(repo RepositoryManager) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		mailer:   noopMailer{},
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

// WithMailer sets the outbound notification collaborator.
func (h *RequestPasswordResetHandler) WithMailer(mailer Mailer) *RequestPasswordResetHandler {
	h.mailer = normalizeMailer(mailer)
	return h
}

func (h *RequestPasswordResetHandler) WithReporter(reporter Reporter) *RequestPasswordResetHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().FindByEmail(ctx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Same error as a bad token, an unknown address must not
				// be distinguishable from a denied one.
				return ErrForbidden
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		// Supersedes any previously pending reset.
		token = user.BeginPasswordReset()

		if _, err := h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password reset token")
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

	go h.mailer.SendPasswordResetLink(user.Email, token)

	if event.OnResponse != nil {
		event.OnResponse(&RequestPasswordResetResponse{
			Message: "Password reset initiated",
		})
	}

	return nil
}
