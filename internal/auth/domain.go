package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Action is an atomic capability checked per route.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Known roles. Permissions are a static table; roles are few and stable
// enough that a database-backed assignment layer would be overkill here.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

var rolePermissions = map[string]map[Action]bool{
	RoleAdmin:   {ActionCreate: true, ActionRead: true, ActionUpdate: true, ActionDelete: true},
	RoleManager: {ActionCreate: true, ActionRead: true, ActionUpdate: true},
	RoleStaff:   {ActionRead: true},
}

// Allowed reports whether the role grants the action.
func Allowed(role string, action Action) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[action]
}

// Claims carried inside the bearer token.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken indicates a missing, expired or tampered token.
	ErrInvalidToken = errors.New("auth: invalid token")
)
