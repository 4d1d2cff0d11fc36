package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SignInMessage carries an already verified user. Credential verification
// happens upstream in UserProvider.VerifyIdentity; this command only mints
// a fresh session token.
type SignInMessage struct {
	User       *User
	OnResponse func(*SignInResponse)
}

func (e SignInMessage) Type() string { return "account.sign_in" }

type SignInResponse struct {
	User    *User
	Token   string
	Message string
}

type SignInHandler struct {
	tokens TokenIssuer
	logger Logger
}

func NewSignInHandler(tokens TokenIssuer) *SignInHandler {
	return &SignInHandler{
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *SignInHandler) WithLogger(logger Logger) *SignInHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignInHandler) Execute(ctx context.Context, event SignInMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignInHandler) execute(ctx context.Context, event SignInMessage) error {
	if event.User == nil {
		return goerrors.New("sign in requires a verified user", goerrors.CategoryBadInput)
	}

	token, err := h.tokens.Mint(identityFromUser(event.User))
	if err != nil {
		h.logger.Error("sign in mint token error", "error", err)
		return newTokenIssuanceError(err, "failed to issue session token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignInResponse{
			User:    event.User,
			Token:   token,
			Message: "Successfully signed in",
		})
	}

	return nil
}
