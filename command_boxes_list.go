package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ListBoxesMessage returns the caller's boxes with the privileged fields
// included; the caller owns every record in the view.
type ListBoxesMessage struct {
	User       *User
	OnResponse func(*ListBoxesResponse)
}

func (e ListBoxesMessage) Type() string { return "account.boxes_list" }

type ListBoxesResponse struct {
	Boxes   []*Box
	Message string
}

type ListBoxesHandler struct {
	repo     RepositoryManager
	reporter Reporter
	logger   Logger
}

func NewListBoxesHandler(repo RepositoryManager) *ListBoxesHandler {
	return &ListBoxesHandler{
		repo:     repo,
		reporter: noopReporter{},
		logger:   defLogger{},
	}
}

func (h *ListBoxesHandler) WithReporter(reporter Reporter) *ListBoxesHandler {
	h.reporter = normalizeReporter(reporter)
	return h
}

func (h *ListBoxesHandler) Execute(ctx context.Context, event ListBoxesMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during box listing",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ListBoxesHandler) execute(ctx context.Context, event ListBoxesMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.User == nil {
		return goerrors.New("box listing requires an authenticated user", goerrors.CategoryBadInput)
	}

	records, err := h.repo.Boxes().ListByOwner(ctx, event.User.ID)
	if err != nil {
		return ClassifyStoreError(err, h.reporter)
	}

	event.User.Boxes = records

	if event.OnResponse != nil {
		event.OnResponse(&ListBoxesResponse{
			Boxes:   records,
			Message: fmt.Sprintf("Found %d boxes", len(records)),
		})
	}

	return nil
}
