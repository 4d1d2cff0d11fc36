package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() string
}

// TokenIssuer mints opaque session tokens bound to an identity
type TokenIssuer interface {
	Mint(identity Identity) (string, error)
}

// TokenRevoker marks still unexpired session tokens as no longer valid.
// Revoke is idempotent; IsRevoked is consulted on every authenticated request.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Mailer delivers out of band notifications. Calls are fire and forget,
// delivery failures are not this package's concern.
type Mailer interface {
	SendPasswordResetLink(email, token string)
	SendEmailConfirmation(email, token string)
}

// Reporter receives unclassified internal failures, best effort
type Reporter interface {
	Report(err error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopMailer struct{}

func (noopMailer) SendPasswordResetLink(email, token string) {}
func (noopMailer) SendEmailConfirmation(email, token string) {}

type noopReporter struct{}

func (noopReporter) Report(err error) {}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

func normalizeReporter(r Reporter) Reporter {
	if r == nil {
		return noopReporter{}
	}
	return r
}
