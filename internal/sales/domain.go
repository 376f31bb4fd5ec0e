// Package sales allocates unsold units to sale transactions. Units are
// never created or destroyed here; a sale only sets and clears the two sale
// fields on existing units.
package sales

import (
	"time"

	"github.com/stocktally/stocktally/internal/shared"
)

// NotesMaxLen bounds free-text notes on a transaction.
const NotesMaxLen = 250

// Transaction models a sale transaction header.
type Transaction struct {
	ID          int64     `json:"id"`
	Reference   string    `json:"reference"`
	Date        time.Time `json:"date"`
	CustomerID  int64     `json:"customer_id"`
	CourierID   *int64    `json:"courier_id,omitempty"`
	MediumID    *int64    `json:"medium_id,omitempty"`
	DeliveryFee *int64    `json:"delivery_fee,omitempty"`
	Notes       string    `json:"notes"`
}

// LineInput is one (type, sale price, quantity) triple in a request.
type LineInput struct {
	TypeID    int64
	SalePrice int64
	Qty       int
}

// CreateInput describes a sale creation request.
type CreateInput struct {
	Date        shared.DateTimeInput
	CustomerID  int64
	CourierID   *int64
	MediumID    *int64
	DeliveryFee *int64
	Notes       string
	Lines       []LineInput
}

// EditInput describes a sale edit request. The allocation is rebuilt from
// scratch against the new lines.
type EditInput struct {
	Date        shared.DateTimeInput
	CustomerID  int64
	CourierID   *int64
	MediumID    *int64
	DeliveryFee *int64
	Notes       string
	Lines       []LineInput
}

// LineGroup is the (type, sale price) grouping of a transaction's units.
type LineGroup struct {
	TypeID    int64  `json:"type_id"`
	TypeName  string `json:"type_name"`
	SalePrice int64  `json:"sale_price"`
	Qty       int    `json:"qty"`
}
