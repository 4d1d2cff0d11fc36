package accounts_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/ppfei03/osem-accounts"
)

func TestListBoxes(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	boxes := &MockBoxes{}

	user := &accounts.User{ID: uuid.New(), Name: "jane doe"}
	records := []*accounts.Box{
		{ID: uuid.New(), OwnerID: user.ID, Name: "balcony", AccessToken: "secret-a"},
		{ID: uuid.New(), OwnerID: user.ID, Name: "garden", AccessToken: "secret-b"},
	}

	repo.On("Boxes").Return(boxes)
	boxes.On("ListByOwner", mock.Anything, user.ID).Return(records, nil).Once()

	handler := accounts.NewListBoxesHandler(repo)

	var res *accounts.ListBoxesResponse
	err := handler.Execute(ctx, accounts.ListBoxesMessage{
		User: user,
		OnResponse: func(r *accounts.ListBoxesResponse) {
			res = r
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.Equal(t, "Found 2 boxes", res.Message)
	assert.Equal(t, records, res.Boxes)
	assert.Equal(t, records, user.Boxes)
	assert.Equal(t, "secret-a", res.Boxes[0].AccessToken, "the owner view includes the access token")

	boxes.AssertExpectations(t)
}

func TestListBoxesEmpty(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	boxes := &MockBoxes{}

	user := &accounts.User{ID: uuid.New()}

	repo.On("Boxes").Return(boxes)
	boxes.On("ListByOwner", mock.Anything, user.ID).Return([]*accounts.Box{}, nil).Once()

	handler := accounts.NewListBoxesHandler(repo)

	var res *accounts.ListBoxesResponse
	err := handler.Execute(ctx, accounts.ListBoxesMessage{
		User: user,
		OnResponse: func(r *accounts.ListBoxesResponse) {
			res = r
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.Equal(t, "Found 0 boxes", res.Message)
	assert.Empty(t, res.Boxes)
}

func TestListBoxesRequiresUser(t *testing.T) {
	ctx := context.Background()
	handler := accounts.NewListBoxesHandler(&MockRepositoryManager{})

	err := handler.Execute(ctx, accounts.ListBoxesMessage{})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
}
