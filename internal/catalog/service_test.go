package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/shared"
)

type fakeRepo struct {
	nextID    int64
	types     map[int64]ItemType
	purchases map[int64]bool
	sales     map[int64]bool

	sweepPurchasesCalls int
	sweepSalesCalls     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{types: map[int64]ItemType{}, purchases: map[int64]bool{}, sales: map[int64]bool{}}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Insert(ctx context.Context, name string) (ItemType, error) {
	for _, it := range f.types {
		if it.Name == name {
			return ItemType{}, shared.ErrDuplicateName
		}
	}
	f.nextID++
	it := ItemType{ID: f.nextID, Name: name}
	f.types[it.ID] = it
	return it, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (ItemType, error) {
	it, ok := f.types[id]
	if !ok {
		return ItemType{}, shared.ErrNotFound
	}
	return it, nil
}

func (f *fakeRepo) Exists(ctx context.Context, name string) (bool, error) {
	for _, it := range f.types {
		if it.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) List(ctx context.Context, req shared.PageRequest) ([]ItemType, int, error) {
	var out []ItemType
	for _, it := range f.types {
		out = append(out, it)
	}
	return out, len(f.types), nil
}

func (f *fakeRepo) Rename(ctx context.Context, id int64, name string) error {
	it, ok := f.types[id]
	if !ok {
		return shared.ErrNotFound
	}
	it.Name = name
	f.types[id] = it
	return nil
}

func (f *fakeRepo) DeleteType(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.types[id]; !ok {
		return false, nil
	}
	delete(f.types, id)
	return true, nil
}

func (f *fakeRepo) SweepPurchases(ctx context.Context) (int64, error) {
	f.sweepPurchasesCalls++
	return 0, nil
}

func (f *fakeRepo) SweepSales(ctx context.Context) (int64, error) {
	f.sweepSalesCalls++
	return 0, nil
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  blue  widget ":   "BLUE_WIDGET",
		"Blue Widget":       "BLUE_WIDGET",
		"BLUE_WIDGET":       "BLUE_WIDGET",
		"blue\twidget":      "BLUE_WIDGET",
		"   ":               "",
		"":                  "",
		"one two  three":    "ONE_TWO_THREE",
		"lower":             "LOWER",
		"mixed Case\nwords": "MIXED_CASE_WORDS",
	}
	for raw, want := range cases {
		require.Equal(t, want, Normalize(raw), "raw=%q", raw)
	}
}

func TestAddNormalizesBeforeInsert(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	it, err := svc.Add(context.Background(), "  blue  widget ")
	require.NoError(t, err)
	require.Equal(t, "BLUE_WIDGET", it.Name)
}

func TestAddRejectsBlankName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Add(context.Background(), "   ")
	require.Error(t, err)
}

func TestAddDuplicateAfterNormalization(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.Add(context.Background(), "Blue Widget")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "  BLUE   widget")
	require.ErrorIs(t, err, shared.ErrDuplicateName)
}

func TestExistsChecksCanonicalForm(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.Add(context.Background(), "blue widget")
	require.NoError(t, err)

	ok, err := svc.Exists(context.Background(), " Blue  WIDGET ")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(context.Background(), "red widget")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteSweepsBothLedgers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	it, err := svc.Add(context.Background(), "widget")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), it.ID))
	require.NotContains(t, repo.types, it.ID)
	require.Equal(t, 1, repo.sweepPurchasesCalls)
	require.Equal(t, 1, repo.sweepSalesCalls)
}

func TestDeleteMissingType(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	err := svc.Delete(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRenameNormalizes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	it, err := svc.Add(context.Background(), "widget")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(context.Background(), it.ID, " big  widget "))
	got, err := svc.Get(context.Background(), it.ID)
	require.NoError(t, err)
	require.Equal(t, "BIG_WIDGET", got.Name)
}
