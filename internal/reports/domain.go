// Package reports is the read-only aggregation layer over the two ledgers.
// Nothing here mutates state.
package reports

import (
	"time"

	"github.com/stocktally/stocktally/internal/shared"
)

// Filter narrows a listing. A non-empty IDs list is exclusive: the date
// fields are ignored when it is present. Within a date field the values are
// OR-ed, across fields AND-ed.
type Filter struct {
	IDs    []int64
	Years  []int
	Months []int
	Days   []int
}

// Exclusive reports whether the id list suppresses the date filters.
func (f Filter) Exclusive() bool { return len(f.IDs) > 0 }

// UnitRow is one unit in the unit listing.
type UnitRow struct {
	ID            int64  `json:"id"`
	TypeID        int64  `json:"type_id"`
	TypeName      string `json:"type_name"`
	PurchasePrice int64  `json:"purchase_price"`
	SalePrice     *int64 `json:"sale_price,omitempty"`
	Profit        *int64 `json:"profit,omitempty"`
	PurchaseID    int64  `json:"purchase_id"`
	SaleID        *int64 `json:"sale_id,omitempty"`
}

// UnitTotals aggregates the full filtered unit set, not just one page.
type UnitTotals struct {
	Count         int   `json:"count"`
	PurchaseTotal int64 `json:"purchase_total"`
	SaleTotal     int64 `json:"sale_total"`
	Profit        int64 `json:"profit"`
}

// PurchaseRow is one (transaction, type, price) group in the purchase
// listing.
type PurchaseRow struct {
	TransactionID int64     `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Date          time.Time `json:"date"`
	SupplierName  string    `json:"supplier_name"`
	TypeName      string    `json:"type_name"`
	UnitPrice     int64     `json:"unit_price"`
	Qty           int       `json:"qty"`
	Subtotal      int64     `json:"subtotal"`
}

// PurchaseTotals aggregates the full filtered purchase set.
type PurchaseTotals struct {
	Amount       int64 `json:"amount"`
	Units        int   `json:"units"`
	Transactions int   `json:"transactions"`
}

// SaleRow is one (transaction, type, price) group in the sale listing.
type SaleRow struct {
	TransactionID int64     `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Date          time.Time `json:"date"`
	CustomerName  string    `json:"customer_name"`
	CourierName   string    `json:"courier_name,omitempty"`
	MediumName    string    `json:"medium_name,omitempty"`
	DeliveryFee   *int64    `json:"delivery_fee,omitempty"`
	TypeName      string    `json:"type_name"`
	SalePrice     int64     `json:"sale_price"`
	Qty           int       `json:"qty"`
	Subtotal      int64     `json:"subtotal"`
}

// SaleTotals aggregates the full filtered sale set. DeliveryFees counts each
// transaction's fee once and honours the active filter.
type SaleTotals struct {
	Amount       int64 `json:"amount"`
	DeliveryFees int64 `json:"delivery_fees"`
	Units        int   `json:"units"`
	Transactions int   `json:"transactions"`
}

// StockRow summarises one type's inventory position.
type StockRow struct {
	TypeID   int64  `json:"type_id"`
	TypeName string `json:"type_name"`
	TotalQty int    `json:"total_qty"`
	SoldQty  int    `json:"sold_qty"`
	StockQty int    `json:"stock_qty"`
	Profit   int64  `json:"profit"`
}

// StockTotals aggregates all stock rows.
type StockTotals struct {
	TotalQty int   `json:"total_qty"`
	SoldQty  int   `json:"sold_qty"`
	StockQty int   `json:"stock_qty"`
	Profit   int64 `json:"profit"`
}

// Counters are the dashboard footer counts.
type Counters struct {
	Units        int64 `json:"units"`
	UnsoldUnits  int64 `json:"unsold_units"`
	Purchases    int64 `json:"purchases"`
	Sales        int64 `json:"sales"`
	StockedTypes int64 `json:"stocked_types"`
}

// Column headers prepended to each listing.
var (
	UnitHeader     = []string{"ID", "TYPE", "PURCHASE PRICE", "SALE PRICE", "PROFIT", "PURCHASE", "SALE"}
	PurchaseHeader = []string{"TRANSACTION", "DATE", "SUPPLIER", "TYPE", "UNIT PRICE", "QTY", "SUBTOTAL"}
	SaleHeader     = []string{"TRANSACTION", "DATE", "CUSTOMER", "COURIER", "MEDIUM", "TYPE", "SALE PRICE", "QTY", "SUBTOTAL"}
	StockHeader    = []string{"TYPE", "TOTAL", "SOLD", "IN STOCK", "PROFIT"}
)

// UnitListing is the full unit report payload.
type UnitListing struct {
	Header     []string          `json:"header"`
	Rows       []UnitRow         `json:"rows"`
	Totals     UnitTotals        `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
}

// PurchaseListing is the full purchase report payload.
type PurchaseListing struct {
	Header     []string          `json:"header"`
	Rows       []PurchaseRow     `json:"rows"`
	Totals     PurchaseTotals    `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
}

// SaleListing is the full sale report payload.
type SaleListing struct {
	Header     []string          `json:"header"`
	Rows       []SaleRow         `json:"rows"`
	Totals     SaleTotals        `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
}

// StockListing is the full stock report payload.
type StockListing struct {
	Header     []string          `json:"header"`
	Rows       []StockRow        `json:"rows"`
	Totals     StockTotals       `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
}
