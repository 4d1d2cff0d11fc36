package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds flags failed credential checks
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeForbidden flags denied lookups, deliberately indistinguishable
	// from "does not exist" to resist account enumeration
	TextCodeForbidden = "FORBIDDEN"
	// TextCodeTokenExpired flags reset tokens past their validity window
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeDuplicateAccount flags uniqueness violations on create
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
	// TextCodeTokenIssuance flags mint failures after the account exists
	TextCodeTokenIssuance = "TOKEN_ISSUANCE_FAILED"
	// TextCodeEmptyPassword flags empty password input
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeTokenRevoked flags revoked session tokens
	TextCodeTokenRevoked = "TOKEN_REVOKED"
)

// ErrForbidden is returned for reset and confirmation lookups that did not
// match. Unknown email and wrong token produce this same error on purpose.
var ErrForbidden = goerrors.New("user or token not valid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrMismatchedHashAndPassword is the error for failed credential checks
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrResetTokenExpired is more specific than ErrForbidden: the token matched
// but its window has passed
var ErrResetTokenExpired = goerrors.New("password reset token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrTokenRevoked is returned when a presented session token is on the
// revocation registry even though not yet expired
var ErrTokenRevoked = goerrors.New("session token has been revoked", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenRevoked)

// ErrSessionExpired is returned when a presented session token is past its
// own expiry
var ErrSessionExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for session tokens that fail to parse or verify
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// newBadRequest flags malformed or contradictory caller input
func newBadRequest(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput)
}

// newValidationError carries one message per offending field
func newValidationError(message string, fields map[string]string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithMetadata(map[string]any{"fields": fields})
}

// newDuplicateAccountError names the field that violated uniqueness
func newDuplicateAccountError(field string) *goerrors.Error {
	return goerrors.New("duplicate user detected", goerrors.CategoryConflict).
		WithTextCode(TextCodeDuplicateAccount).
		WithMetadata(map[string]any{"field": field})
}

// newTokenIssuanceError reports mint failures. When the account was already
// persisted the message must say so, the caller needs to know it exists.
func newTokenIssuanceError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(goerrors.CodeInternal).
		WithTextCode(TextCodeTokenIssuance)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
