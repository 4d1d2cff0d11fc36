package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SignOutMessage revokes the presented session token. Re-revoking an
// already revoked token is a no-op; the credential store is never touched.
type SignOutMessage struct {
	Token      string
	TTL        time.Duration
	OnResponse func(*SignOutResponse)
}

func (e SignOutMessage) Type() string { return "account.sign_out" }

type SignOutResponse struct {
	Message string
}

type SignOutHandler struct {
	revoker TokenRevoker
	logger  Logger
}

func NewSignOutHandler(revoker TokenRevoker) *SignOutHandler {
	return &SignOutHandler{
		revoker: revoker,
		logger:  defLogger{},
	}
}

func (h *SignOutHandler) WithLogger(logger Logger) *SignOutHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignOutHandler) Execute(ctx context.Context, event SignOutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign out",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignOutHandler) execute(ctx context.Context, event SignOutMessage) error {
	if event.Token == "" {
		return goerrors.New("session token required", goerrors.CategoryBadInput)
	}

	if err := h.revoker.Revoke(ctx, event.Token, event.TTL); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke session token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignOutResponse{
			Message: "Successfully signed out",
		})
	}

	return nil
}
