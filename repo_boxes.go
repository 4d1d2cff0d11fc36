package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Boxes stores the sensor stations owned by accounts. Listing is always a
// fresh snapshot; the privileged access token travels with each record
// because only the owner ever receives this view.
type Boxes interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Box, error)
	Create(ctx context.Context, record *Box) (*Box, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Box) (*Box, error)
}

type boxes struct {
	repository.Repository[*Box]
	db *bun.DB
}

var _ Boxes = (*boxes)(nil)

// NewBoxesRepository builds the bun backed box store
func NewBoxesRepository(db *bun.DB) Boxes {
	repo := repository.NewRepository[*Box](db, repository.ModelHandlers[*Box]{
		NewRecord: func() *Box { return &Box{} },
		GetID: func(b *Box) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Box, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
	})

	return &boxes{
		Repository: repo,
		db:         db,
	}
}

func (b *boxes) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Box, error) {
	records := []*Box{}
	err := b.db.NewSelect().Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (b *boxes) Create(ctx context.Context, record *Box) (*Box, error) {
	return b.CreateTx(ctx, b.db, record)
}

func (b *boxes) CreateTx(ctx context.Context, tx bun.IDB, record *Box) (*Box, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return b.Repository.CreateTx(ctx, tx, record)
}
