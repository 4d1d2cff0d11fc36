package accounts

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store for account records. Lookups that back the
// recovery flows match on token and address together so a miss never reveals
// which part was wrong.
type Users interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByAnyEmail(ctx context.Context, email string) (*User, error)
	FindByEmailAndResetToken(ctx context.Context, email, token string) (*User, error)
	FindByConfirmationToken(ctx context.Context, email, token string) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun backed credential store
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// FindByAnyEmail matches an address against both the confirmed and the
// pending column. An address parked as someone's pending change counts as
// taken just like a confirmed one.
func (a *users) FindByAnyEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("?TableAlias.email = ?", normalizeEmail(email)).
				WhereOr("?TableAlias.unconfirmed_email = ?", normalizeEmail(email))
		}).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) FindByEmailAndResetToken(ctx context.Context, email, token string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Where("?TableAlias.reset_password_token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// FindByConfirmationToken matches the confirmation token against a user
// whose confirmed or pending address equals the given email. This covers
// both the confirm-new-email and re-confirm-current-email flows.
func (a *users) FindByConfirmationToken(ctx context.Context, email, token string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.email_confirmation_token = ?", token).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("?TableAlias.email = ?", normalizeEmail(email)).
				WhereOr("?TableAlias.unconfirmed_email = ?", normalizeEmail(email))
		}).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, record)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserSave(record)
	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.Language == "" {
		record.Language = DefaultLanguage
	}

	record.Email = normalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	prepareUserSave(record)
}

// prepareUserSave generates the email confirmation token whenever a pending
// address is stored without one. Token generation is this layer's
// responsibility so the lifecycle commands never duplicate it.
func prepareUserSave(record *User) {
	if record == nil {
		return
	}

	record.UnconfirmedEmail = normalizeEmail(record.UnconfirmedEmail)

	if record.UnconfirmedEmail != "" && record.EmailConfirmationToken == "" {
		record.EmailConfirmationToken = uuid.New().String()
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
