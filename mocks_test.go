package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	accounts "github.com/ppfei03/osem-accounts"
)

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager. RunInTx
// executes the given function against a zero value tx unless an error was
// staged for the call.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

func (m *MockRepositoryManager) Boxes() accounts.Boxes {
	args := m.Called()
	return args.Get(0).(accounts.Boxes)
}

// MockUsers implements accounts.Users
type MockUsers struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*accounts.User, error) {
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) FindByID(ctx context.Context, id uuid.UUID) (*accounts.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*accounts.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *MockUsers) FindByAnyEmail(ctx context.Context, email string) (*accounts.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *MockUsers) FindByEmailAndResetToken(ctx context.Context, email, token string) (*accounts.User, error) {
	return userResult(m.Called(ctx, email, token))
}

func (m *MockUsers) FindByConfirmationToken(ctx context.Context, email, token string) (*accounts.User, error) {
	return userResult(m.Called(ctx, email, token))
}

func (m *MockUsers) Create(ctx context.Context, record *accounts.User) (*accounts.User, error) {
	return userResult(m.Called(ctx, record))
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User) (*accounts.User, error) {
	return userResult(m.Called(ctx, tx, record))
}

func (m *MockUsers) Update(ctx context.Context, record *accounts.User) (*accounts.User, error) {
	return userResult(m.Called(ctx, record))
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User) (*accounts.User, error) {
	return userResult(m.Called(ctx, tx, record))
}

// MockBoxes implements accounts.Boxes
type MockBoxes struct {
	mock.Mock
}

func boxResult(args mock.Arguments) (*accounts.Box, error) {
	if b, ok := args.Get(0).(*accounts.Box); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoxes) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*accounts.Box, error) {
	args := m.Called(ctx, ownerID)
	if records, ok := args.Get(0).([]*accounts.Box); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoxes) Create(ctx context.Context, record *accounts.Box) (*accounts.Box, error) {
	return boxResult(m.Called(ctx, record))
}

func (m *MockBoxes) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Box) (*accounts.Box, error) {
	return boxResult(m.Called(ctx, tx, record))
}

// MockTokenIssuer implements accounts.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Mint(identity accounts.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

// MockReporter implements accounts.Reporter
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(err error) {
	m.Called(err)
}

// TestIdentity implements accounts.Identity
type TestIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Name() string  { return t.name }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Role() string  { return t.role }

type mailerCall struct {
	email string
	token string
}

// capturingMailer records notifications through channels since handlers
// dispatch them on their own goroutine.
type capturingMailer struct {
	resets        chan mailerCall
	confirmations chan mailerCall
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{
		resets:        make(chan mailerCall, 1),
		confirmations: make(chan mailerCall, 1),
	}
}

func (c *capturingMailer) SendPasswordResetLink(email, token string) {
	c.resets <- mailerCall{email: email, token: token}
}

func (c *capturingMailer) SendEmailConfirmation(email, token string) {
	c.confirmations <- mailerCall{email: email, token: token}
}

func waitForMail(t *testing.T, ch chan mailerCall) mailerCall {
	t.Helper()
	select {
	case call := <-ch:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mail notification, got none")
		return mailerCall{}
	}
}
