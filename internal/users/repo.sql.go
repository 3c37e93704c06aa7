package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, full_name, role, active, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Get returns one user.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// List returns all users ordered by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO users (username, full_name, role, active, password_hash, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING `+userColumns,
		u.Username, u.FullName, u.Role, u.Active, u.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Update rewrites a user's mutable fields.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `UPDATE users SET username=$2, full_name=$3, role=$4, active=$5, password_hash=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+userColumns, u.ID, u.Username, u.FullName, u.Role, u.Active, u.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Deactivate flips active off instead of deleting the row, keeping
// created_by references on bills intact.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
