package purchases

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/shared"
	"github.com/stocktally/stocktally/internal/units"
)

type fakeLedger struct {
	nextUnitID     int64
	nextPurchaseID int64
	units          map[int64]units.Unit
	purchases      map[int64]Transaction
	saleRows       map[int64]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		nextUnitID:     0,
		nextPurchaseID: 100,
		units:          map[int64]units.Unit{},
		purchases:      map[int64]Transaction{},
		saleRows:       map[int64]bool{},
	}
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	unitsBefore := make(map[int64]units.Unit, len(f.units))
	for k, v := range f.units {
		unitsBefore[k] = v
	}
	purchasesBefore := make(map[int64]Transaction, len(f.purchases))
	for k, v := range f.purchases {
		purchasesBefore[k] = v
	}
	if err := fn(ctx, f); err != nil {
		f.units = unitsBefore
		f.purchases = purchasesBefore
		return err
	}
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, id int64) (Transaction, error) {
	return f.GetTransactionForUpdate(ctx, id)
}

func (f *fakeLedger) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	byKey := map[[2]int64][]int64{}
	for _, u := range f.units {
		if u.PurchaseTransactionID == id {
			key := [2]int64{u.TypeID, u.PurchasePrice}
			byKey[key] = append(byKey[key], u.ID)
		}
	}
	var groups []LineGroup
	for key, ids := range byKey {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, LineGroup{TypeID: key[0], UnitPrice: key[1], Qty: len(ids), UnitIDs: ids})
	}
	return groups, nil
}

func (f *fakeLedger) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	tr, ok := f.purchases[id]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return tr, nil
}

func (f *fakeLedger) InsertTransaction(ctx context.Context, tr Transaction) (int64, error) {
	f.nextPurchaseID++
	tr.ID = f.nextPurchaseID
	f.purchases[tr.ID] = tr
	return tr.ID, nil
}

func (f *fakeLedger) UpdateTransaction(ctx context.Context, tr Transaction) error {
	if _, ok := f.purchases[tr.ID]; !ok {
		return shared.ErrNotFound
	}
	f.purchases[tr.ID] = tr
	return nil
}

func (f *fakeLedger) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.purchases[id]; !ok {
		return false, nil
	}
	delete(f.purchases, id)
	for uid, u := range f.units {
		if u.PurchaseTransactionID == id {
			delete(f.units, uid)
		}
	}
	return true, nil
}

func (f *fakeLedger) InsertUnits(ctx context.Context, purchaseID, typeID, price int64, qty int) error {
	for i := 0; i < qty; i++ {
		f.nextUnitID++
		f.units[f.nextUnitID] = units.Unit{
			ID:                    f.nextUnitID,
			TypeID:                typeID,
			PurchasePrice:         price,
			PurchaseTransactionID: purchaseID,
		}
	}
	return nil
}

func (f *fakeLedger) UnitsByPurchase(ctx context.Context, purchaseID int64) ([]units.Unit, error) {
	var owned []units.Unit
	for _, u := range f.units {
		if u.PurchaseTransactionID == purchaseID {
			owned = append(owned, u)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned, nil
}

func (f *fakeLedger) UpdateUnit(ctx context.Context, id, typeID, price int64) error {
	u, ok := f.units[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.TypeID = typeID
	u.PurchasePrice = price
	f.units[id] = u
	return nil
}

func (f *fakeLedger) DeleteUnits(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(f.units, id)
	}
	return nil
}

func (f *fakeLedger) SweepPurchases(ctx context.Context) (int64, error) {
	referenced := map[int64]bool{}
	for _, u := range f.units {
		referenced[u.PurchaseTransactionID] = true
	}
	var n int64
	for id := range f.purchases {
		if !referenced[id] {
			delete(f.purchases, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) SweepSales(ctx context.Context) (int64, error) {
	referenced := map[int64]bool{}
	for _, u := range f.units {
		if u.SaleTransactionID != nil {
			referenced[*u.SaleTransactionID] = true
		}
	}
	var n int64
	for id := range f.saleRows {
		if !referenced[id] {
			delete(f.saleRows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) markSold(unitID, saleID, price int64) {
	u := f.units[unitID]
	u.SalePrice = &price
	u.SaleTransactionID = &saleID
	f.units[unitID] = u
	f.saleRows[saleID] = true
}

func (f *fakeLedger) unitIDs(purchaseID int64) []int64 {
	var ids []int64
	for _, u := range f.units {
		if u.PurchaseTransactionID == purchaseID {
			ids = append(ids, u.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func testDate() shared.DateTimeInput {
	return shared.DateTimeInput{Year: 2024, Month: 3, Day: 10, Hour: 14, Minute: 30}
}

func TestCreateInsertsOneRowPerUnit(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 2}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, tr.Reference)

	ids := ledger.unitIDs(tr.ID)
	require.Len(t, ids, 2)
	for _, id := range ids {
		u := ledger.units[id]
		require.Equal(t, int64(7), u.TypeID)
		require.Equal(t, int64(5000), u.PurchasePrice)
		require.Nil(t, u.SaleTransactionID)
	}
}

func TestCreateSkipsZeroQuantityLines(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines: []LineInput{
			{TypeID: 7, UnitPrice: 5000, Qty: 1},
			{TypeID: 8, UnitPrice: 9000, Qty: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, ledger.unitIDs(tr.ID), 1)
}

func TestCreateRejectsAllZeroLines(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 0}},
	})
	require.Error(t, err)
	require.Empty(t, ledger.purchases)
}

func TestCreateRejectsImpossibleCalendarDate(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	_, err := svc.Create(context.Background(), CreateInput{
		Date:       shared.DateTimeInput{Year: 2024, Month: 4, Day: 31},
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidDate)
}

func TestEditSameLinesKeepsUnitIdentity(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 3}},
	})
	require.NoError(t, err)
	before := ledger.unitIDs(tr.ID)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []EditLineInput{{TypeID: 7, UnitPrice: 5000, Qty: 3, ExistingIDs: before}},
	})
	require.NoError(t, err)
	require.Equal(t, before, ledger.unitIDs(tr.ID))
	for _, id := range before {
		require.Equal(t, int64(5000), ledger.units[id].PurchasePrice)
	}
}

func TestEditShrinkRemovesUnsoldUnitsFirst(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 3}},
	})
	require.NoError(t, err)
	ids := ledger.unitIDs(tr.ID)
	// Last unit sold. Shrinking to one must keep it and drop unsold stock.
	ledger.markSold(ids[2], 500, 8000)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []EditLineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1, ExistingIDs: ids}},
	})
	require.NoError(t, err)

	remaining := ledger.unitIDs(tr.ID)
	require.Equal(t, []int64{ids[2]}, remaining)
	require.True(t, ledger.units[ids[2]].Sold())
	require.True(t, ledger.saleRows[500])
}

func TestEditDeletingSoldUnitSweepsEmptySale(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1}},
	})
	require.NoError(t, err)
	ids := ledger.unitIDs(tr.ID)
	ledger.markSold(ids[0], 500, 8000)

	// Replacing the line with a fresh one deletes the sold unit, which must
	// take the now-empty sale with it.
	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines: []EditLineInput{
			{TypeID: 7, UnitPrice: 5000, Qty: 0, ExistingIDs: ids},
			{TypeID: 9, UnitPrice: 6000, Qty: 1},
		},
	})
	require.NoError(t, err)
	require.False(t, ledger.saleRows[500])
	require.Len(t, ledger.unitIDs(tr.ID), 1)
}

func TestEditGrowAddsNewUnits(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1}},
	})
	require.NoError(t, err)
	before := ledger.unitIDs(tr.ID)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []EditLineInput{{TypeID: 7, UnitPrice: 5500, Qty: 3, ExistingIDs: before}},
	})
	require.NoError(t, err)

	after := ledger.unitIDs(tr.ID)
	require.Len(t, after, 3)
	require.Contains(t, after, before[0])
	for _, id := range after {
		require.Equal(t, int64(5500), ledger.units[id].PurchasePrice)
	}
}

func TestEditRejectsForeignUnitIDs(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1}},
	})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 4000, Qty: 1}},
	})
	require.NoError(t, err)

	stolen := ledger.unitIDs(other.ID)
	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []EditLineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1, ExistingIDs: stolen}},
	})
	require.ErrorIs(t, err, shared.ErrIntegrityViolation)
	// Rollback leaves both transactions untouched.
	require.Len(t, ledger.unitIDs(other.ID), 1)
	require.Len(t, ledger.unitIDs(tr.ID), 1)
}

func TestEditToZeroUnitsSweepsTransaction(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 2}},
	})
	require.NoError(t, err)
	ids := ledger.unitIDs(tr.ID)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []EditLineInput{{TypeID: 7, UnitPrice: 5000, Qty: 0, ExistingIDs: ids}},
	})
	require.NoError(t, err)
	require.NotContains(t, ledger.purchases, tr.ID)
	require.Empty(t, ledger.units)
}

func TestDeleteRemovesTransactionAndUnits(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), tr.ID))
	require.NotContains(t, ledger.purchases, tr.ID)
	require.Empty(t, ledger.units)
}

func TestDeleteMissingTransaction(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	err := svc.Delete(context.Background(), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRejectsOverlongNotes(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	long := make([]byte, NotesMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		SupplierID: 3,
		Notes:      string(long),
		Lines:      []LineInput{{TypeID: 7, UnitPrice: 5000, Qty: 1}},
	})
	require.Error(t, err)
}
