// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/registra/registra/internal/model"
	"github.com/registra/registra/internal/service"
)

// CreateUserRequest represents the request body for registering a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToInput converts the request into service input.
func (r CreateUserRequest) ToInput() service.CreateUserInput {
	return service.CreateUserInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// UpdateUserRequest represents the request body for a partial user update.
// Absent fields are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// ToPatch converts the request into a model patch.
func (r UpdateUserRequest) ToPatch() model.UserPatch {
	return model.UserPatch{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// UserResponse is the stored user record. Password is the bcrypt hash.
type UserResponse struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	UsernameNormalized string    `json:"username_normalized"`
	Email              string    `json:"email"`
	EmailNormalized    string    `json:"email_normalized"`
	Password           string    `json:"password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToUserResponse converts a model user to its API shape.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		UsernameNormalized: u.UsernameNormalized,
		Email:              u.Email,
		EmailNormalized:    u.EmailNormalized,
		Password:           u.Password,
		CreatedAt:          u.CreatedAt.UTC(),
		UpdatedAt:          u.UpdatedAt.UTC(),
	}
}
