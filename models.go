package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (i.e. manage own boxes)
	RoleUser UserRole = "user"
	// RoleAdmin is an admin account (i.e. manage all boxes)
	RoleAdmin UserRole = "admin"
)

// DefaultLanguage is assigned when registration omits a locale
const DefaultLanguage = "en_US"

// PasswordResetTTL is the validity window of a password reset token
const PasswordResetTTL = 12 * time.Hour

// User is the durable account entity
type User struct {
	bun.BaseModel          `bun:"table:users,alias:usr"`
	ID                     uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                   string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Email                  string     `bun:"email,notnull,unique" json:"email,omitempty"`
	UnconfirmedEmail       string     `bun:"unconfirmed_email" json:"unconfirmed_email,omitempty"`
	Role                   UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	Language               string     `bun:"language,notnull" json:"language,omitempty"`
	PasswordHash           string     `bun:"password_hash" json:"-"`
	ResetPasswordToken     string     `bun:"reset_password_token" json:"-"`
	ResetPasswordExpires   *time.Time `bun:"reset_password_expires,nullzero" json:"-"`
	EmailConfirmationToken string     `bun:"email_confirmation_token" json:"-"`
	EmailIsConfirmed       bool       `bun:"email_is_confirmed" json:"email_is_confirmed"`
	Boxes                  []*Box     `bun:"rel:has-many,join:id=owner_id" json:"boxes,omitempty"`
	CreatedAt              *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SetPassword hashes the plaintext and stores the hash. Consuming or
// superseding a pending reset is a side effect of every password change,
// so the reset token and its expiry are cleared here.
func (u *User) SetPassword(plaintext string) error {
	hash, err := HashPassword(plaintext)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	return nil
}

// CheckPassword compares the plaintext against the stored hash
func (u *User) CheckPassword(plaintext string) error {
	return ComparePasswordAndHash(plaintext, u.PasswordHash)
}

// BeginPasswordReset issues a fresh reset token valid for PasswordResetTTL,
// overwriting any previously pending reset.
func (u *User) BeginPasswordReset() string {
	token := uuid.New().String()
	expires := time.Now().Add(PasswordResetTTL)

	u.ResetPasswordToken = token
	u.ResetPasswordExpires = &expires
	return token
}

// ResetExpired reports whether the pending reset token is past its window
func (u *User) ResetExpired() bool {
	return u.ResetPasswordExpires == nil || time.Now().After(*u.ResetPasswordExpires)
}

// ConfirmEmail promotes a pending address and consumes the confirmation
// token. When the pending field was the source, email is assigned the
// confirmed value; re-confirming the current address only flips the flag.
func (u *User) ConfirmEmail() {
	if u.UnconfirmedEmail != "" {
		u.Email = u.UnconfirmedEmail
		u.UnconfirmedEmail = ""
	}
	u.EmailIsConfirmed = true
	u.EmailConfirmationToken = ""
}

// Box is a sensor station owned by a user. The access token is the
// privileged field only exposed on the owner's listing.
type Box struct {
	bun.BaseModel `bun:"table:boxes,alias:box"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Exposure      string     `bun:"exposure" json:"exposure,omitempty"`
	Model         string     `bun:"model" json:"model,omitempty"`
	AccessToken   string     `bun:"access_token" json:"access_token,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
