package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/ppfei03/osem-accounts"
)

func userWithPendingReset(t *testing.T) (*accounts.User, string) {
	t.Helper()

	user := &accounts.User{
		ID:    uuid.New(),
		Email: "jane@example.com",
	}
	require.NoError(t, user.SetPassword("old password"))
	token := user.BeginPasswordReset()
	return user, token
}

func TestCompletePasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	user, token := userWithPendingReset(t)

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()
	users.On("FindByEmailAndResetToken", mock.Anything, "jane@example.com", token).
		Return(user, nil).Once()
	users.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
		return u.ResetPasswordToken == "" && u.ResetPasswordExpires == nil
	})).Return(user, nil).Once()

	handler := accounts.NewCompletePasswordResetHandler(repo).WithLogger(testLogger{})

	var res *accounts.CompletePasswordResetResponse
	err := handler.Execute(ctx, accounts.CompletePasswordResetMessage{
		Email:    "jane@example.com",
		Token:    token,
		Password: "new password",
		OnResponse: func(r *accounts.CompletePasswordResetResponse) {
			res = r
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.Equal(t, "Password successfully changed. You can now log in with your new password", res.Message)

	assert.NoError(t, user.CheckPassword("new password"))
	assert.Error(t, user.CheckPassword("old password"))

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestCompletePasswordResetRejectsShortPassword(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}

	handler := accounts.NewCompletePasswordResetHandler(repo)

	err := handler.Execute(ctx, accounts.CompletePasswordResetMessage{
		Email:    "jane@example.com",
		Token:    "some-token",
		Password: "short",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

	fields, ok := richErr.Metadata["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "password")

	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompletePasswordResetWrongToken(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()
	users.On("FindByEmailAndResetToken", mock.Anything, "jane@example.com", "wrong-token").
		Return(nil, repository.NewRecordNotFound()).Once()

	handler := accounts.NewCompletePasswordResetHandler(repo)

	err := handler.Execute(ctx, accounts.CompletePasswordResetMessage{
		Email:    "jane@example.com",
		Token:    "wrong-token",
		Password: "new password",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, accounts.TextCodeForbidden, richErr.TextCode)
}

func TestCompletePasswordResetExpiredToken(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	user, token := userWithPendingReset(t)
	past := time.Now().Add(-time.Minute)
	user.ResetPasswordExpires = &past

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()
	users.On("FindByEmailAndResetToken", mock.Anything, "jane@example.com", token).
		Return(user, nil).Once()

	handler := accounts.NewCompletePasswordResetHandler(repo)

	err := handler.Execute(ctx, accounts.CompletePasswordResetMessage{
		Email:    "jane@example.com",
		Token:    token,
		Password: "new password",
	})
	require.Error(t, err)

	// The token matched, so a more specific error than forbidden is fine.
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, accounts.TextCodeTokenExpired, richErr.TextCode)

	users.AssertNotCalled(t, "UpdateTx", mock.Anything, mock.Anything, mock.Anything)
	assert.Error(t, user.CheckPassword("new password"), "password must stay unchanged")
}
