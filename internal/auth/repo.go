package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Credential is the subset of a user row needed for login.
type Credential struct {
	ID           int64
	Username     string
	Role         string
	PasswordHash string
}

// Repository loads credentials for authentication.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (Credential, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByUsername(ctx context.Context, username string) (Credential, error) {
	var cred Credential
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, role, password_hash FROM users WHERE username = $1 AND active`, username).
		Scan(&cred.ID, &cred.Username, &cred.Role, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrInvalidCredentials
		}
		return Credential{}, err
	}
	return cred, nil
}
