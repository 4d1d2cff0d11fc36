package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserProvider verifies credentials against the credential store. Sign in
// runs through here before the SignIn command ever mints a token, so the
// command itself only deals with already verified identities.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user by email, compare the password, and
// return the identity. An unknown address and a wrong password produce the
// same error.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, *User, error) {
	user, err := u.store.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrMismatchedHashAndPassword
		}
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, nil, ErrMismatchedHashAndPassword
	}

	return identityFromUser(user), user, nil
}

// FindIdentityByIdentifier resolves a session subject back to an identity
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.FindByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

type authIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (a authIdentity) ID() string    { return a.id }
func (a authIdentity) Name() string  { return a.name }
func (a authIdentity) Email() string { return a.email }
func (a authIdentity) Role() string  { return a.role }

var _ Identity = authIdentity{}

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:    user.ID.String(),
		name:  user.Name,
		email: user.Email,
		role:  string(user.Role),
	}
}
