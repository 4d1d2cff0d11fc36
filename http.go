package accounts

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// SessionLocalsKey is where the auth middleware stores the verified session
const SessionLocalsKey = "accounts_session"

// GetSession returns the verified session stored by RequireAuth
func GetSession(c *fiber.Ctx) (*SessionObject, error) {
	session, ok := c.Locals(SessionLocalsKey).(*SessionObject)
	if !ok || session == nil {
		return nil, ErrTokenMalformed
	}
	return session, nil
}

// RequireAuth verifies the bearer token and consults the revocation
// registry on every request before letting it through.
func RequireAuth(tokens TokenService, revoker TokenRevoker, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return writeError(c, ErrTokenMalformed)
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			return writeError(c, err)
		}

		revoked, err := revoker.IsRevoked(c.UserContext(), raw)
		if err != nil {
			logger.Error("revocation check failed", "error", err)
			return writeError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token revocation"))
		}

		if revoked {
			return writeError(c, ErrTokenRevoked)
		}

		c.Locals(SessionLocalsKey, sessionFromClaims(claims, raw))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// writeError converts classified errors to the wire: category picks the
// status, field detail travels only for validation failures.
func writeError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "an internal error occurred",
		})
	}

	body := fiber.Map{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	if richErr.Category == goerrors.CategoryValidation {
		if fields, ok := richErr.Metadata["fields"]; ok {
			body["fields"] = fields
		}
	}

	return c.Status(statusFromError(richErr)).JSON(body)
}

func statusFromError(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryValidation:
		return fiber.StatusUnprocessableEntity
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryAuth:
		if err.Code == goerrors.CodeForbidden {
			return fiber.StatusForbidden
		}
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusForbidden
	case goerrors.CategoryOperation:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
