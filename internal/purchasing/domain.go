package purchasing

import (
	"errors"
	"time"
)

// POStatus is the purchase order lifecycle. The only legal transition is
// pending to received, and it is one-way.
type POStatus string

const (
	POStatusPending  POStatus = "pending"
	POStatusReceived POStatus = "received"
)

// PurchaseOrder is an order placed with a supplier. Stock is credited once,
// on the transition into received.
type PurchaseOrder struct {
	ID                int64      `json:"id"`
	OrderNumber       string     `json:"order_number"`
	SupplierID        int64      `json:"supplier_id"`
	AddressID         *int64     `json:"address_id,omitempty"`
	ShippingAddressID *int64     `json:"shipping_address_id,omitempty"`
	Status            POStatus   `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	CreatedBy         int64      `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ReceivedAt        *time.Time `json:"received_at,omitempty"`
	Items             []POItem   `json:"items,omitempty"`
}

// POItem is owned by its order and replaced wholesale on updates carrying a
// new item list. TotalQuantity, when set, overrides UnitQuantity as the
// quantity credited to stock on receipt.
type POItem struct {
	ID              int64    `json:"id"`
	PurchaseOrderID int64    `json:"purchase_order_id"`
	ProductID       int64    `json:"product_id"`
	UnitPrice       float64  `json:"unit_price"`
	UnitQuantity    float64  `json:"unit_quantity"`
	TotalQuantity   *float64 `json:"total_quantity,omitempty"`
	Total           float64  `json:"total"`
}

// ReceiveQuantity is the quantity credited to stock for this item.
func (it POItem) ReceiveQuantity() float64 {
	if it.TotalQuantity != nil {
		return *it.TotalQuantity
	}
	return it.UnitQuantity
}

var (
	// ErrNotFound indicates a missing purchase order.
	ErrNotFound = errors.New("purchasing: purchase order not found")
	// ErrEmptyItems indicates an order carrying no items.
	ErrEmptyItems = errors.New("purchasing: at least one item required")
	// ErrInvalidTransition occurs when moving a received order back to pending.
	ErrInvalidTransition = errors.New("purchasing: received orders cannot return to pending")
)
