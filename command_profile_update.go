package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage mutates the caller's own account. Email and password
// changes are mutually exclusive per call and both require the current
// password; all other fields apply independently when they differ from the
// stored value.
type UpdateProfileMessage struct {
	User            *User
	Session         *SessionObject
	Name            string `json:"name"`
	Email           string `json:"email"`
	Language        string `json:"language"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	OnResponse      func(*UpdateProfileResponse)
}

func (e UpdateProfileMessage) Type() string { return "account.profile_update" }

type UpdateProfileResponse struct {
	User     *User
	Messages []string
	Message  string
}

type UpdateProfileHandler struct {
	repo     RepositoryManager
	revoker  TokenRevoker
	mailer   Mailer
	reporter Reporter
	logger   Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager, revoker TokenRevoker) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:     repo,
		revoker:  revoker,
		mailer:   noopMailer{},
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

// WithMailer sets the outbound notification collaborator used for the
// implicit email confirmation request.
func (h *UpdateProfileHandler) WithMailer(mailer Mailer) *UpdateProfileHandler {
	h.mailer = normalizeMailer(mailer)
	return h
}

func (h *UpdateProfileHandler) WithReporter(reporter Reporter) *UpdateProfileHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := event.User
	if user == nil {
		return goerrors.New("profile update requires an authenticated user", goerrors.CategoryBadInput)
	}

	email := normalizeEmail(event.Email)

	if email != "" && event.NewPassword != "" {
		return newBadRequest("You cannot change your email address and password in the same request")
	}

	// The current password gates every credential change, and it is checked
	// before any field is touched.
	if email != "" || event.NewPassword != "" {
		if event.CurrentPassword == "" {
			return newBadRequest("To change your email address or password, please supply your current password")
		}
		if err := user.CheckPassword(event.CurrentPassword); err != nil {
			return newBadRequest("Current password not correct")
		}
	}

	// The validation gate covers the whole update: a bad new password or
	// handle rejects the call with every field untouched.
	if event.NewPassword != "" {
		if err := ValidatePassword(event.NewPassword); err != nil {
			return newBadRequest("New password should have at least 8 characters")
		}
	}

	name := strings.TrimSpace(event.Name)
	if name != "" && name != user.Name {
		if err := ValidateAccountName(name); err != nil {
			return newValidationError("some fields failed validation", map[string]string{
				"name": err.Error(),
			})
		}
	}

	messages := []string{}
	changed := false
	signOut := false

	if name != "" && name != user.Name {
		user.Name = name
		changed = true
	}

	if event.Language != "" && event.Language != user.Language {
		user.Language = event.Language
		changed = true
	}

	if email != "" && email != user.Email {
		// The pending column carries no unique constraint, so the address
		// is checked against both columns before it is parked.
		if err := h.ensureAddressAvailable(ctx, user, email); err != nil {
			return err
		}

		// Never assigned directly; the store generates the confirmation
		// token alongside the pending address.
		user.UnconfirmedEmail = email
		changed = true
		messages = append(messages, " E-Mail changed. Please confirm your new address. Until confirmation, sign in with your old address")
	}

	if event.NewPassword != "" {
		if err := user.SetPassword(event.NewPassword); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
		}
		changed = true
		signOut = true
		messages = append(messages, " Password changed. Please sign in with your new password")
	}

	if !changed {
		if event.OnResponse != nil {
			event.OnResponse(&UpdateProfileResponse{
				User:     user,
				Messages: []string{},
				Message:  "No changed properties supplied. User remains unchanged",
			})
		}
		return nil
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := h.repo.Users().UpdateTx(ctx, tx, user)
		return err
	})

	if err != nil {
		if field, ok := duplicateKeyField(err); ok && field == "email" && user.UnconfirmedEmail != "" {
			return newValidationError(
				fmt.Sprintf("New email address <%s> already exists", user.UnconfirmedEmail),
				map[string]string{"email": "already in use"},
			)
		}
		return ClassifyStoreError(err, h.reporter)
	}

	// Storing a pending address generated its confirmation token; this is
	// the only entry point for requesting a confirmation.
	if user.UnconfirmedEmail != "" && user.EmailConfirmationToken != "" {
		go h.mailer.SendEmailConfirmation(user.UnconfirmedEmail, user.EmailConfirmationToken)
	}

	if signOut && event.Session != nil {
		if err := h.revoker.Revoke(ctx, event.Session.Raw, event.Session.TTL()); err != nil {
			h.logger.Warn("failed to revoke session after password change", "error", err)
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateProfileResponse{
			User:     user,
			Messages: messages,
			Message:  "User successfully saved." + strings.Join(messages, "."),
		})
	}

	return nil
}

// ensureAddressAvailable rejects a pending address already held by another
// account, confirmed or pending. A concurrent save can still slip past this
// check; the duplicate key handling on persist covers that race.
func (h *UpdateProfileHandler) ensureAddressAvailable(ctx context.Context, user *User, email string) error {
	existing, err := h.repo.Users().FindByAnyEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	// Re-requesting an address the caller already holds is not a conflict.
	if existing != nil && existing.ID != user.ID {
		return newValidationError(
			fmt.Sprintf("New email address <%s> already exists", email),
			map[string]string{"email": "already in use"},
		)
	}

	return nil
}
