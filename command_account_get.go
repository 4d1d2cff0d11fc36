package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// GetAccountMessage resolves the session subject to a fresh user record
type GetAccountMessage struct {
	UserID     uuid.UUID
	OnResponse func(*GetAccountResponse)
}

func (e GetAccountMessage) Type() string { return "account.get" }

type GetAccountResponse struct {
	User *User
}

type GetAccountHandler struct {
	repo     RepositoryManager
	reporter Reporter
}

func NewGetAccountHandler(repo RepositoryManager) *GetAccountHandler {
	return &GetAccountHandler{
		repo:     repo,
		reporter: noopReporter{},
	}
}

func (h *GetAccountHandler) WithReporter(reporter Reporter) *GetAccountHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *GetAccountHandler) Execute(ctx context.Context, event GetAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account lookup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *GetAccountHandler) execute(ctx context.Context, event GetAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().FindByID(ctx, event.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrForbidden
		}
		return ClassifyStoreError(err, h.reporter)
	}

	if event.OnResponse != nil {
		event.OnResponse(&GetAccountResponse{User: user})
	}

	return nil
}
