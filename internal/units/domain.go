// Package units owns the canonical unit rows: every statement that mutates
// the units table lives here and runs on a transaction supplied by one of
// the ledgers.
package units

// Unit is one physical purchased item, trackable through its sale.
type Unit struct {
	ID                    int64
	TypeID                int64
	PurchasePrice         int64
	SalePrice             *int64
	PurchaseTransactionID int64
	SaleTransactionID     *int64
}

// Sold reports whether the unit is allocated to a sale.
func (u Unit) Sold() bool {
	return u.SaleTransactionID != nil
}

// Profit is sale price minus purchase price, defined only for sold units.
func (u Unit) Profit() (int64, bool) {
	if u.SalePrice == nil || u.SaleTransactionID == nil {
		return 0, false
	}
	return *u.SalePrice - u.PurchasePrice, true
}
