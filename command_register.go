package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Language   string `json:"language"`
	OnResponse func(*RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	User    *User
	Token   string
	Message string
}

type RegisterAccountHandler struct {
	repo     RepositoryManager
	tokens   TokenIssuer
	reporter Reporter
	logger   Logger
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager, tokens TokenIssuer) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		tokens:   tokens,
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

// WithReporter sets the sink for unclassified store failures.
func (h *RegisterAccountHandler) WithReporter(reporter Reporter) *RegisterAccountHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	fields := map[string]string{}
	if err := ValidateAccountName(strings.TrimSpace(event.Name)); err != nil {
		fields["name"] = err.Error()
	}
	if err := ValidateEmail(event.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := ValidatePassword(event.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return newValidationError("some fields failed validation", fields)
	}

	user := &User{
		Name:     strings.TrimSpace(event.Name),
		Email:    event.Email,
		Language: event.Language,
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := user.SetPassword(event.Password); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		created, err := h.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}

		user = created
		return nil
	})

	if err != nil {
		return ClassifyStoreError(err, h.reporter)
	}

	// The account exists from this point on. A mint failure is a partial
	// success and must read differently from a validation failure.
	token, err := h.tokens.Mint(identityFromUser(user))
	if err != nil {
		h.logger.Error("register mint token error", "error", err)
		return newTokenIssuanceError(err, "account was created but issuing a session token failed, please sign in")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{
			User:    user,
			Token:   token,
			Message: "Successfully registered new user",
		})
	}

	return nil
}
