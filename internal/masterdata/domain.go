// Package masterdata holds the reference entities billing and purchasing
// point at: customers, products and suppliers. Pure persistence
// pass-through, no domain rules.
package masterdata

import (
	"errors"
	"time"
)

// Customer is a billing counterparty.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	BranchID  *int64    `json:"branch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a sellable or purchasable item.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku,omitempty"`
	UnitID        *int64    `json:"unit_id,omitempty"`
	BrandID       *int64    `json:"brand_id,omitempty"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	SalePrice     float64   `json:"sale_price"`
	PurchasePrice float64   `json:"purchase_price"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Supplier is a purchasing counterparty.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound indicates a missing master record.
var ErrNotFound = errors.New("masterdata: not found")
