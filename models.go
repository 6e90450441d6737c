package activation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Fullness selects how much of a user record a lookup returns.
type Fullness = string

const (
	// FullRecord selects every column, password hash included.
	FullRecord Fullness = "full"
	// ModifiedRecord selects the public-safe projection of the record.
	ModifiedRecord Fullness = "modified"
)

// User is the user model. Email is stored lowercased and is unique; the
// password hash is empty for social accounts.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Image         string     `bun:"image" json:"image,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PublicUserInfo is the public projection of a user record, the only user
// shape the flows hand back to callers.
type PublicUserInfo struct {
	ID    uuid.UUID `json:"id,omitempty" redis:"id"`
	Email string    `json:"email,omitempty" redis:"email"`
	Name  string    `json:"name,omitempty" redis:"name"`
	Image string    `json:"image,omitempty" redis:"image"`
}

// Public strips sensitive fields from the record.
func (u *User) Public() PublicUserInfo {
	if u == nil {
		return PublicUserInfo{}
	}
	return PublicUserInfo{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Image: u.Image,
	}
}

// HasPassword reports whether the account was created with a password, as
// opposed to a social identity assertion.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// behave the same regardless of how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
