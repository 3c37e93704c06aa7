package stock

import (
	"errors"
	"time"
)

// Stock holds per-product counters. currentStock is not derived on read:
// it is recomputed and written on every mutation so the stored row is
// always self-consistent.
type Stock struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	OpeningStock float64   `json:"opening_stock"`
	PurchasedQty float64   `json:"purchased_qty"`
	SoldQty      float64   `json:"sold_qty"`
	CurrentStock float64   `json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Recompute refreshes the current counter from the other three.
func (s *Stock) Recompute() {
	s.CurrentStock = s.OpeningStock + s.PurchasedQty - s.SoldQty
}

var (
	// ErrInsufficientStock indicates a decrement below zero was rejected.
	ErrInsufficientStock = errors.New("stock: insufficient stock")
	// ErrNotFound indicates a missing stock row.
	ErrNotFound = errors.New("stock: not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("stock: quantity must be positive")
)
