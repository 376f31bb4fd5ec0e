// Package purchases implements the purchase side of the ledger: the only
// component that creates unit rows.
package purchases

import (
	"time"

	"github.com/stocktally/stocktally/internal/shared"
)

// NotesMaxLen bounds free-text notes on a transaction.
const NotesMaxLen = 250

// Transaction models a purchase transaction header.
type Transaction struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	Date       time.Time `json:"date"`
	SupplierID int64     `json:"supplier_id"`
	Notes      string    `json:"notes"`
}

// LineInput is one (type, price, quantity) triple in a create request.
// Quantity zero is a no-op line.
type LineInput struct {
	TypeID    int64
	UnitPrice int64
	Qty       int
}

// EditLineInput carries a line's existing unit ids alongside its new target,
// so the edit can reconcile instead of recreating.
type EditLineInput struct {
	TypeID      int64
	UnitPrice   int64
	Qty         int
	ExistingIDs []int64
}

// CreateInput describes a purchase creation request.
type CreateInput struct {
	Date       shared.DateTimeInput
	SupplierID int64
	Notes      string
	Lines      []LineInput
}

// EditInput describes a purchase edit request.
type EditInput struct {
	Date       shared.DateTimeInput
	SupplierID int64
	Notes      string
	Lines      []EditLineInput
}

// LineGroup is the (type, price) grouping of a transaction's current units,
// used to seed an edit request.
type LineGroup struct {
	TypeID    int64   `json:"type_id"`
	TypeName  string  `json:"type_name"`
	UnitPrice int64   `json:"unit_price"`
	Qty       int     `json:"qty"`
	UnitIDs   []int64 `json:"unit_ids"`
}
