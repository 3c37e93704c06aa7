package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists master entities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, phone, email, address, branch_id, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.BranchID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `INSERT INTO customers (name, phone, email, address, branch_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING `+customerColumns,
		c.Name, c.Phone, c.Email, c.Address, c.BranchID))
}

func (r *Repository) UpdateCustomer(ctx context.Context, c Customer) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `UPDATE customers SET name=$2, phone=$3, email=$4, address=$5, branch_id=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+customerColumns, c.ID, c.Name, c.Phone, c.Email, c.Address, c.BranchID))
}

func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM customers WHERE id = $1`, id)
}

const productColumns = `id, name, sku, unit_id, brand_id, category_id, sale_price, purchase_price, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.UnitID, &p.BrandID, &p.CategoryID,
		&p.SalePrice, &p.PurchasePrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `INSERT INTO products (name, sku, unit_id, brand_id, category_id, sale_price, purchase_price, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING `+productColumns,
		p.Name, p.SKU, p.UnitID, p.BrandID, p.CategoryID, p.SalePrice, p.PurchasePrice, p.Active))
}

func (r *Repository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `UPDATE products SET name=$2, sku=$3, unit_id=$4, brand_id=$5, category_id=$6,
sale_price=$7, purchase_price=$8, active=$9, updated_at=NOW() WHERE id=$1 RETURNING `+productColumns,
		p.ID, p.Name, p.SKU, p.UnitID, p.BrandID, p.CategoryID, p.SalePrice, p.PurchasePrice, p.Active))
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM products WHERE id = $1`, id)
}

const supplierColumns = `id, name, phone, email, gstin, address, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.GSTIN, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
}

func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, phone, email, gstin, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING `+supplierColumns,
		s.Name, s.Phone, s.Email, s.GSTIN, s.Address))
}

func (r *Repository) UpdateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `UPDATE suppliers SET name=$2, phone=$3, email=$4, gstin=$5, address=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+supplierColumns, s.ID, s.Name, s.Phone, s.Email, s.GSTIN, s.Address))
}

func (r *Repository) DeleteSupplier(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
}

func (r *Repository) deleteRow(ctx context.Context, query string, id int64) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
