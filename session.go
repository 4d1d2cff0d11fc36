package accounts

import (
	"time"

	"github.com/google/uuid"
)

// SessionObject holds the attributes of a verified session token as seen by
// authenticated operations: the subject, the raw token (needed to revoke it)
// and the token's own validity window.
type SessionObject struct {
	UserID    string
	Role      string
	TokenID   string
	Raw       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GetUserID returns the session subject
func (s *SessionObject) GetUserID() string {
	return s.UserID
}

// GetUserUUID parses the subject as a uuid
func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

// TTL is the time until the token expires on its own. Revocation entries
// only need to outlive this window.
func (s *SessionObject) TTL() time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return time.Until(s.ExpiresAt)
}

func sessionFromClaims(claims *JWTClaims, raw string) *SessionObject {
	return &SessionObject{
		UserID:    claims.UserID(),
		Role:      claims.Role(),
		TokenID:   claims.ID,
		Raw:       raw,
		IssuedAt:  claims.TokenIssuedAt(),
		ExpiresAt: claims.Expires(),
	}
}
