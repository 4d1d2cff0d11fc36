package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ClassifyStoreError maps failures surfaced by the credential store into the
// small client facing taxonomy: uniqueness violations become duplicate
// account errors, domain rule failures pass through, anything else is
// reported to the observability sink and surfaced as an opaque internal
// error without leaking details.
func ClassifyStoreError(err error, reporter Reporter) *goerrors.Error {
	if err == nil {
		return nil
	}

	if field, ok := duplicateKeyField(err); ok {
		return newDuplicateAccountError(field)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryValidation, goerrors.CategoryConflict, goerrors.CategoryBadInput:
			return richErr
		}
	}

	normalizeReporter(reporter).Report(err)

	return goerrors.New("an internal error occurred", goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal)
}

// duplicateKeyField detects unique constraint violations from the sqlite and
// postgres drivers and names the offending column when it can.
func duplicateKeyField(err error) (string, bool) {
	msg := err.Error()

	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value violates unique constraint") {
		return "", false
	}

	switch {
	case strings.Contains(msg, "email"):
		return "email", true
	case strings.Contains(msg, "name"):
		return "name", true
	}

	return "", true
}
