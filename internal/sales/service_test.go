package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/shared"
	"github.com/stocktally/stocktally/internal/units"
)

type fakeLedger struct {
	nextSaleID    int64
	units         map[int64]units.Unit
	purchaseDates map[int64]time.Time
	sales         map[int64]Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		nextSaleID:    100,
		units:         map[int64]units.Unit{},
		purchaseDates: map[int64]time.Time{},
		sales:         map[int64]Transaction{},
	}
}

func (f *fakeLedger) seedPurchase(purchaseID int64, date time.Time, typeID int64, unitIDs ...int64) {
	f.purchaseDates[purchaseID] = date
	for _, id := range unitIDs {
		f.units[id] = units.Unit{ID: id, TypeID: typeID, PurchasePrice: 1000, PurchaseTransactionID: purchaseID}
	}
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	unitsBefore := make(map[int64]units.Unit, len(f.units))
	for k, v := range f.units {
		unitsBefore[k] = v
	}
	salesBefore := make(map[int64]Transaction, len(f.sales))
	for k, v := range f.sales {
		salesBefore[k] = v
	}
	if err := fn(ctx, f); err != nil {
		f.units = unitsBefore
		f.sales = salesBefore
		return err
	}
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, id int64) (Transaction, error) {
	return f.GetTransactionForUpdate(ctx, id)
}

func (f *fakeLedger) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	byKey := map[[2]int64]int{}
	for _, u := range f.units {
		if u.SaleTransactionID != nil && *u.SaleTransactionID == id {
			byKey[[2]int64{u.TypeID, *u.SalePrice}]++
		}
	}
	var groups []LineGroup
	for key, qty := range byKey {
		groups = append(groups, LineGroup{TypeID: key[0], SalePrice: key[1], Qty: qty})
	}
	return groups, nil
}

func (f *fakeLedger) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	tr, ok := f.sales[id]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return tr, nil
}

func (f *fakeLedger) InsertTransaction(ctx context.Context, tr Transaction) (int64, error) {
	f.nextSaleID++
	tr.ID = f.nextSaleID
	f.sales[tr.ID] = tr
	return tr.ID, nil
}

func (f *fakeLedger) UpdateTransaction(ctx context.Context, tr Transaction) error {
	if _, ok := f.sales[tr.ID]; !ok {
		return shared.ErrNotFound
	}
	f.sales[tr.ID] = tr
	return nil
}

func (f *fakeLedger) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.sales[id]; !ok {
		return false, nil
	}
	delete(f.sales, id)
	return true, nil
}

func (f *fakeLedger) SelectUnsoldForUpdate(ctx context.Context, typeID int64, limit int) ([]units.Unit, error) {
	var eligible []units.Unit
	for _, u := range f.units {
		if u.TypeID == typeID && u.SaleTransactionID == nil {
			eligible = append(eligible, u)
		}
	}
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			di, dj := f.purchaseDates[eligible[i].PurchaseTransactionID], f.purchaseDates[eligible[j].PurchaseTransactionID]
			if dj.Before(di) || (dj.Equal(di) && eligible[j].ID < eligible[i].ID) {
				eligible[i], eligible[j] = eligible[j], eligible[i]
			}
		}
	}
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (f *fakeLedger) AssignSale(ctx context.Context, unitIDs []int64, saleID, salePrice int64) error {
	for _, id := range unitIDs {
		u := f.units[id]
		price := salePrice
		sid := saleID
		u.SalePrice = &price
		u.SaleTransactionID = &sid
		f.units[id] = u
	}
	return nil
}

func (f *fakeLedger) ReleaseSale(ctx context.Context, saleID int64) (int64, error) {
	var n int64
	for id, u := range f.units {
		if u.SaleTransactionID != nil && *u.SaleTransactionID == saleID {
			u.SalePrice = nil
			u.SaleTransactionID = nil
			f.units[id] = u
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
	for id := range f.sales {
		if !referenced[id] {
			delete(f.sales, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) soldBy(saleID int64) []int64 {
	var ids []int64
	for id, u := range f.units {
		if u.SaleTransactionID != nil && *u.SaleTransactionID == saleID {
			ids = append(ids, id)
		}
	}
	return ids
}

func testDate() shared.DateTimeInput {
	return shared.DateTimeInput{Year: 2024, Month: 3, Day: 10, Hour: 14, Minute: 30}
}

func TestCreateAllocatesOldestPurchasesFirst(t *testing.T) {
	ledger := newFakeLedger()
	// Newer purchase seeded first so map order cannot mask the sort.
	ledger.seedPurchase(2, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 7, 20, 21)
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10, 11)
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 2}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, tr.Reference)

	sold := ledger.soldBy(tr.ID)
	require.ElementsMatch(t, []int64{10, 11}, sold)
	for _, id := range sold {
		u := ledger.units[id]
		require.NotNil(t, u.SalePrice)
		require.Equal(t, int64(2500), *u.SalePrice)
	}
}

func TestCreateInsufficientStockLeavesNothingBehind(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10, 11)
	ledger.seedPurchase(2, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 8, 20)
	svc := NewService(ledger, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines: []LineInput{
			{TypeID: 7, SalePrice: 2500, Qty: 2},
			{TypeID: 8, SalePrice: 3000, Qty: 5},
		},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Empty(t, ledger.sales)
	for _, u := range ledger.units {
		require.Nil(t, u.SaleTransactionID)
		require.Nil(t, u.SalePrice)
	}
}

func TestCreateRejectsEmptyRequest(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	_, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 0}},
	})
	require.Error(t, err)
}

func TestCreateRejectsFutureDate(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	future := shared.FromTime(time.Now().UTC().Add(48 * time.Hour))
	_, err := svc.Create(context.Background(), CreateInput{
		Date:       future,
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidDate)
}

func TestEditReallocatesFromScratch(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10, 11, 12)
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 3}},
	})
	require.NoError(t, err)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2800, Qty: 1}},
	})
	require.NoError(t, err)

	sold := ledger.soldBy(tr.ID)
	require.Len(t, sold, 1)
	require.Equal(t, int64(10), sold[0])
	require.Equal(t, int64(2800), *ledger.units[10].SalePrice)
}

func TestEditShortfallRestoresOriginalAllocation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10, 11)
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 2}},
	})
	require.NoError(t, err)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 5}},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.ElementsMatch(t, []int64{10, 11}, ledger.soldBy(tr.ID))
	require.Equal(t, int64(2500), *ledger.units[10].SalePrice)
}

func TestEditToZeroUnitsSweepsTransaction(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10)
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 1}},
	})
	require.NoError(t, err)

	err = svc.Edit(context.Background(), tr.ID, EditInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 0}},
	})
	require.NoError(t, err)

	require.NotContains(t, ledger.sales, tr.ID)
	require.Nil(t, ledger.units[10].SaleTransactionID)
}

func TestDeleteReleasesUnits(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedPurchase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7, 10, 11)
	svc := NewService(ledger, nil)

	tr, err := svc.Create(context.Background(), CreateInput{
		Date:       testDate(),
		CustomerID: 1,
		Lines:      []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), tr.ID))
	require.NotContains(t, ledger.sales, tr.ID)
	for _, u := range ledger.units {
		require.Nil(t, u.SaleTransactionID)
		require.Nil(t, u.SalePrice)
	}
}

func TestDeleteMissingTransaction(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	err := svc.Delete(context.Background(), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRejectsNegativeDeliveryFee(t *testing.T) {
	svc := NewService(newFakeLedger(), nil)
	fee := int64(-100)
	_, err := svc.Create(context.Background(), CreateInput{
		Date:        testDate(),
		CustomerID:  1,
		DeliveryFee: &fee,
		Lines:       []LineInput{{TypeID: 7, SalePrice: 2500, Qty: 1}},
	})
	require.Error(t, err)
}
