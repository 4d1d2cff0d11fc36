package accounts_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/ppfei03/osem-accounts"
)

func TestForbiddenErrorShape(t *testing.T) {
	var richErr *goerrors.Error
	require.True(t, goerrors.As(accounts.ErrForbidden, &richErr))

	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.Equal(t, goerrors.CodeForbidden, richErr.Code)
	assert.Equal(t, accounts.TextCodeForbidden, richErr.TextCode)
	assert.Equal(t, "user or token not valid", richErr.Message)
}

func TestInvalidCredentialsErrorShape(t *testing.T) {
	var richErr *goerrors.Error
	require.True(t, goerrors.As(accounts.ErrMismatchedHashAndPassword, &richErr))

	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
	assert.Equal(t, accounts.TextCodeInvalidCreds, richErr.TextCode)
}

func TestResetTokenExpiredIsMoreSpecificThanForbidden(t *testing.T) {
	var richErr *goerrors.Error
	require.True(t, goerrors.As(accounts.ErrResetTokenExpired, &richErr))

	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Equal(t, accounts.TextCodeTokenExpired, richErr.TextCode)
	assert.NotEqual(t, accounts.ErrForbidden.TextCode, richErr.TextCode)
}

func TestTokenRevokedErrorShape(t *testing.T) {
	var richErr *goerrors.Error
	require.True(t, goerrors.As(accounts.ErrTokenRevoked, &richErr))

	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.Equal(t, accounts.TextCodeTokenRevoked, richErr.TextCode)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, accounts.IsTokenExpiredError(accounts.ErrSessionExpired))
	assert.True(t, accounts.IsTokenExpiredError(accounts.ErrResetTokenExpired))
	assert.True(t, accounts.IsTokenExpiredError(fmt.Errorf("wrapped: %w", errors.New("token is expired"))))

	assert.False(t, accounts.IsTokenExpiredError(nil))
	assert.False(t, accounts.IsTokenExpiredError(errors.New("something else")))
	assert.False(t, accounts.IsTokenExpiredError(accounts.ErrForbidden))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, accounts.IsMalformedError(accounts.ErrTokenMalformed))
	assert.True(t, accounts.IsMalformedError(errors.New("missing or malformed JWT")))

	assert.False(t, accounts.IsMalformedError(nil))
	assert.False(t, accounts.IsMalformedError(errors.New("token is expired")))
}
