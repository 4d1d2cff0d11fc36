package accounts

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PasswordMinLength applies to registration, reset completion and profile
// password changes alike.
const PasswordMinLength = 8

var nameCharset = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]*$`)

const nameRuleMessage = "must consist of at least 4 and up to 40 alphanumerics (a-zA-Z0-9), dot (.), dash (-), underscore (_) and spaces, starting with an alphanumeric"

const passwordRuleMessage = "must be at least 8 characters"

// NameRules are the account handle constraints shared by registration and
// profile updates.
func NameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(4, 40),
		validation.Match(nameCharset).Error(nameRuleMessage),
	}
}

// PasswordRules enforce the minimum password length
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(PasswordMinLength, 0).Error(passwordRuleMessage),
	}
}

// EmailRules validate address shape
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		is.Email,
	}
}

// ValidateAccountName checks a single handle outside of a struct payload
func ValidateAccountName(name string) error {
	return validation.Validate(name, NameRules()...)
}

// ValidatePassword checks the shared minimum length rule
func ValidatePassword(password string) error {
	return validation.Validate(password, PasswordRules()...)
}

// ValidateEmail checks address shape
func ValidateEmail(email string) error {
	return validation.Validate(email, EmailRules()...)
}

// FormatValidationErrorToMap flattens ozzo validation errors into one
// message per offending field.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		out["_"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}
