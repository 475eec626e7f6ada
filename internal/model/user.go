// Package model defines domain entities for the application.
package model

import "time"

// Column limits for the users table.
const (
	MaxUsernameLength = 39
	MaxEmailLength    = 254
)

// User is a registered account as stored in the users table.
// The password field always holds a bcrypt hash, never plaintext.
type User struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	UsernameNormalized string    `json:"username_normalized"`
	Email              string    `json:"email"`
	EmailNormalized    string    `json:"email_normalized"`
	Password           string    `json:"password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil
}
