// Package lookups serves the small reference tables (branches, brands,
// categories, units, addresses) through one table-driven CRUD handler.
// Every table shares the shape (id, name, detail); detail carries the
// free-text part, e.g. the full address for an address row.
package lookups

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one reference row.
type Record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resource binds a URL slug to its backing table.
type Resource struct {
	Slug  string
	Table string
}

// Resources is the closed set of lookup tables. The table names below are
// the only ones ever interpolated into SQL.
var Resources = []Resource{
	{Slug: "branches", Table: "branches"},
	{Slug: "brands", Table: "brands"},
	{Slug: "categories", Table: "categories"},
	{Slug: "units", Table: "units"},
	{Slug: "addresses", Table: "addresses"},
}

// ErrNotFound indicates a missing lookup row.
var ErrNotFound = errors.New("lookups: not found")

// Repository persists lookup records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Name, &rec.Detail, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns every row of the table ordered by name.
func (r *Repository) List(ctx context.Context, table string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, detail, created_at, updated_at FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one row.
func (r *Repository) Get(ctx context.Context, table string, id int64) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT id, name, detail, created_at, updated_at FROM `+table+` WHERE id = $1`, id))
}

// Create inserts a row.
func (r *Repository) Create(ctx context.Context, table string, rec Record) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`INSERT INTO `+table+` (name, detail, created_at, updated_at) VALUES ($1,$2,NOW(),NOW())
RETURNING id, name, detail, created_at, updated_at`, rec.Name, rec.Detail))
}

// Update rewrites a row.
func (r *Repository) Update(ctx context.Context, table string, rec Record) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`UPDATE `+table+` SET name=$2, detail=$3, updated_at=NOW() WHERE id=$1
RETURNING id, name, detail, created_at, updated_at`, rec.ID, rec.Name, rec.Detail))
}

// Delete removes a row.
func (r *Repository) Delete(ctx context.Context, table string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
