package accounts

import (
	"github.com/gofiber/fiber/v2"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// AccountsController exposes the lifecycle commands over HTTP. Transport
// concerns stop here; everything behind it speaks commands and classified
// errors.
type AccountsController struct {
	Logger   Logger
	Repo     RepositoryManager
	Tokens   TokenService
	Revoker  TokenRevoker
	Mailer   Mailer
	Reporter Reporter
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:   defLogger{},
		Mailer:   noopMailer{},
		Reporter: noopReporter{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in accounts controller...")
	}

	if c.Revoker == nil {
		panic("Missing TokenRevoker in accounts controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens TokenService) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerRevoker(revoker TokenRevoker) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Revoker = revoker
		return c
	}
}

func WithControllerMailer(mailer Mailer) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Mailer = normalizeMailer(mailer)
		return c
	}
}

func WithControllerReporter(reporter Reporter) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Reporter = normalizeReporter(reporter)
		return c
	}
}

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterRoutes mounts the account lifecycle endpoints
func (a *AccountsController) RegisterRoutes(app *fiber.App) {
	app.Post("/users/register", a.Register)
	app.Post("/users/sign-in", a.SignIn)
	app.Post("/users/request-password-reset", a.RequestPasswordReset)
	app.Post("/users/password-reset", a.CompletePasswordReset)
	app.Post("/users/confirm-email", a.ConfirmEmail)

	auth := RequireAuth(a.Tokens, a.Revoker, a.Logger)
	app.Post("/users/sign-out", auth, a.SignOut)
	app.Get("/users/me", auth, a.GetSelf)
	app.Put("/users/me", auth, a.UpdateProfile)
	app.Get("/users/me/boxes", auth, a.ListBoxes)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, NameRules()...),
		validation.Field(&r.Email, EmailRules()...),
		validation.Field(&r.Password, PasswordRules()...),
	)
}

func (a *AccountsController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return writeError(c, newValidationError("some fields failed validation", FormatValidationErrorToMap(err)))
	}

	var res *RegisterAccountResponse
	handler := NewRegisterAccountHandler(a.Repo, a.Tokens).
		WithReporter(a.Reporter).
		WithLogger(a.Logger)

	err := handler.Execute(c.UserContext(), RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Language: payload.Language,
		OnResponse: func(r *RegisterAccountResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": res.Message,
		"data":    fiber.Map{"user": res.User},
		"token":   res.Token,
	})
}

// SignInPayload is the credential body
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, EmailRules()...),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) SignIn(c *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := c.BodyParser(payload); err != nil {
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return writeError(c, newValidationError("some fields failed validation", FormatValidationErrorToMap(err)))
	}

	// Credential check happens here; the command below only mints.
	provider := NewUserProvider(a.Repo.Users()).WithLogger(a.Logger)
	_, user, err := provider.VerifyIdentity(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return writeError(c, err)
	}

	var res *SignInResponse
	handler := NewSignInHandler(a.Tokens).WithLogger(a.Logger)

	err = handler.Execute(c.UserContext(), SignInMessage{
		User: user,
		OnResponse: func(r *SignInResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": res.Message,
		"data":    fiber.Map{"user": res.User},
		"token":   res.Token,
	})
}

func (a *AccountsController) SignOut(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return writeError(c, err)
	}

	var res *SignOutResponse
	handler := NewSignOutHandler(a.Revoker).WithLogger(a.Logger)

	err = handler.Execute(c.UserContext(), SignOutMessage{
		Token: session.Raw,
		TTL:   session.TTL(),
		OnResponse: func(r *SignOutResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": res.Message})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `json:"email"`
}

func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, EmailRules()...),
	)
}

func (a *AccountsController) RequestPasswordReset(c *fiber.Ctx) error {
	payload := new(PasswordResetRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return writeError(c, newValidationError("some fields failed validation", FormatValidationErrorToMap(err)))
	}

	var res *RequestPasswordResetResponse
	handler := NewRequestPasswordResetHandler(a.Repo).
		WithMailer(a.Mailer).
		WithReporter(a.Reporter).
		WithLogger(a.Logger)

	err := handler.Execute(c.UserContext(), RequestPasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(r *RequestPasswordResetResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": res.Message})
}

// PasswordResetCompletePayload holds values for finishing a reset
type PasswordResetCompletePayload struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r PasswordResetCompletePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, EmailRules()...),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, PasswordRules()...),
	)
}

func (a *AccountsController) CompletePasswordReset(c *fiber.Ctx) error {
	payload := new(PasswordResetCompletePayload)

	if err := c.BodyParser(payload); err != nil {
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return writeError(c, newValidationError("some fields failed validation", FormatValidationErrorToMap(err)))
	}

	var res *CompletePasswordResetResponse
	handler := NewCompletePasswordResetHandler(a.Repo).
		WithReporter(a.Reporter).
		WithLogger(a.Logger)

	err := handler.Execute(c.UserContext(), CompletePasswordResetMessage{
		Email:    payload.Email,
		Token:    payload.Token,
		Password: payload.Password,
		OnResponse: func(r *CompletePasswordResetResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": res.Message})
}

// ConfirmEmailPayload holds values for email confirmation
type ConfirmEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (r ConfirmEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, EmailRules()...),
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AccountsController) ConfirmEmail(c *fiber.Ctx) error {
	payload := new(ConfirmEmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return writeError(c, newValidationError("some fields failed validation", FormatValidationErrorToMap(err)))
	}

	var res *ConfirmEmailResponse
	handler := NewConfirmEmailHandler(a.Repo).
		WithReporter(a.Reporter).
		WithLogger(a.Logger)

	err := handler.Execute(c.UserContext(), ConfirmEmailMessage{
		Email: payload.Email,
		Token: payload.Token,
		OnResponse: func(r *ConfirmEmailResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": res.Message})
}

func (a *AccountsController) GetSelf(c *fiber.Ctx) error {
	user, err := a.sessionUser(c)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"me": user}})
}

// UpdateProfilePayload is the profile update body
type UpdateProfilePayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Language        string `json:"language"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *AccountsController) UpdateProfile(c *fiber.Ctx) error {
	payload := new(UpdateProfilePayload)

	if err := c.BodyParser(payload); err != nil {
		return writeError(c, newBadRequest("failed to parse request body"))
	}

	session, err := GetSession(c)
	if err != nil {
		return writeError(c, err)
	}

	user, err := a.sessionUser(c)
	if err != nil {
		return writeError(c, err)
	}

	var res *UpdateProfileResponse
	handler := NewUpdateProfileHandler(a.Repo, a.Revoker).
		WithMailer(a.Mailer).
		WithReporter(a.Reporter).
		WithLogger(a.Logger)

	err = handler.Execute(c.UserContext(), UpdateProfileMessage{
		User:            user,
		Session:         session,
		Name:            payload.Name,
		Email:           payload.Email,
		Language:        payload.Language,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		OnResponse: func(r *UpdateProfileResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": res.Message,
		"data":    fiber.Map{"me": res.User},
	})
}

func (a *AccountsController) ListBoxes(c *fiber.Ctx) error {
	user, err := a.sessionUser(c)
	if err != nil {
		return writeError(c, err)
	}

	var res *ListBoxesResponse
	handler := NewListBoxesHandler(a.Repo).WithReporter(a.Reporter)

	err = handler.Execute(c.UserContext(), ListBoxesMessage{
		User: user,
		OnResponse: func(r *ListBoxesResponse) {
			res = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": res.Message,
		"data":    fiber.Map{"boxes": res.Boxes},
	})
}

// sessionUser loads a fresh record for the session subject
func (a *AccountsController) sessionUser(c *fiber.Ctx) (*User, error) {
	session, err := GetSession(c)
	if err != nil {
		return nil, err
	}

	id, err := session.GetUserUUID()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "session subject is not a valid id").
			WithCode(goerrors.CodeUnauthorized)
	}

	var user *User
	handler := NewGetAccountHandler(a.Repo).WithReporter(a.Reporter)
	err = handler.Execute(c.UserContext(), GetAccountMessage{
		UserID: id,
		OnResponse: func(r *GetAccountResponse) {
			user = r.User
		},
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
