package users

import (
	"errors"
	"time"
)

// User is an operator account. PasswordHash never leaves the package.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates a missing user.
	ErrNotFound = errors.New("users: not found")
	// ErrUsernameTaken indicates a duplicate username.
	ErrUsernameTaken = errors.New("users: username already taken")
)
