package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStock(t *testing.T, l *database.Ledger, name string, qty int) models.StockItem {
	t.Helper()
	cat := models.Category{Name: "Ice Cream"}
	require.NoError(t, l.CreateCategory(context.Background(), &cat))
	item := models.StockItem{Name: name, CategoryID: cat.ID, Price: decimal.NewFromInt(20), Quantity: qty}
	require.NoError(t, l.CreateStock(context.Background(), &item))
	return item
}

func TestListStockFilters(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))

	cones := models.Category{Name: "Cones"}
	cups := models.Category{Name: "Cups"}
	require.NoError(t, l.CreateCategory(ctx, &cones))
	require.NoError(t, l.CreateCategory(ctx, &cups))

	for _, item := range []models.StockItem{
		{Name: "Butterscotch Cone", CategoryID: cones.ID, Price: decimal.NewFromInt(40), Quantity: 4},
		{Name: "Vanilla Cup", CategoryID: cups.ID, Price: decimal.NewFromInt(30), Quantity: 2},
		{Name: "Chocolate Cone", CategoryID: cones.ID, Price: decimal.NewFromInt(45), Quantity: 0},
	} {
		item := item
		require.NoError(t, l.CreateStock(ctx, &item))
	}

	testCases := []struct {
		name     string
		filter   database.StockFilter
		expected []string
	}{
		{name: "all, ordered by name", filter: database.StockFilter{}, expected: []string{"Butterscotch Cone", "Chocolate Cone", "Vanilla Cup"}},
		{name: "case-insensitive search", filter: database.StockFilter{Query: "CONE"}, expected: []string{"Butterscotch Cone", "Chocolate Cone"}},
		{name: "category", filter: database.StockFilter{CategoryID: cups.ID}, expected: []string{"Vanilla Cup"}},
		{name: "search and category", filter: database.StockFilter{Query: "vanilla", CategoryID: cones.ID}, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := l.ListStock(ctx, tc.filter)
			require.NoError(t, err)
			names := []string{}
			for _, it := range items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestUpdateAndDeleteStock(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))
	item := seedStock(t, l, "Kulfi", 5)

	name := "Malai Kulfi"
	price := decimal.NewFromInt(35)
	updated, err := l.UpdateStock(ctx, item.ID, database.StockUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Malai Kulfi", updated.Name)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, 5, updated.Quantity)

	_, err = l.UpdateStock(ctx, 999, database.StockUpdate{Name: &name})
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, l.DeleteStock(ctx, item.ID))
	assert.ErrorIs(t, l.DeleteStock(ctx, item.ID), database.ErrNotFound)
	_, err = l.GetStock(ctx, item.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDecrementStockModes(t *testing.T) {
	testCases := []struct {
		name        string
		mode        database.DecrementMode
		start, take int
		expected    int
		expectedErr error
	}{
		{name: "allow within stock", mode: database.DecrementAllow, start: 5, take: 3, expected: 2},
		{name: "allow goes negative", mode: database.DecrementAllow, start: 2, take: 3, expected: -1},
		{name: "clamp floors at zero", mode: database.DecrementClamp, start: 2, take: 3, expected: 0},
		{name: "clamp within stock", mode: database.DecrementClamp, start: 5, take: 3, expected: 2},
		{name: "guarded exact", mode: database.DecrementGuarded, start: 3, take: 3, expected: 0},
		{name: "guarded refuses", mode: database.DecrementGuarded, start: 2, take: 3, expected: 2, expectedErr: database.ErrInsufficientStock},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			l := database.NewLedger(databasetest.Open(t))
			item := seedStock(t, l, "Cone", tc.start)

			err := l.DecrementStock(ctx, item.ID, tc.take, tc.mode)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			got, err := l.GetStock(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Quantity)
		})
	}
}

func TestDecrementStockMissingItem(t *testing.T) {
	l := database.NewLedger(databasetest.Open(t))
	err := l.DecrementStock(context.Background(), 42, 1, database.DecrementGuarded)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))
	item := seedStock(t, l, "Cone", 5)

	boom := errors.New("boom")
	err := l.WithinTx(ctx, func(tx database.Store) error {
		require.NoError(t, tx.InsertBill(ctx, &models.Bill{Total: decimal.NewFromInt(20), Cash: decimal.NewFromInt(20), UPI: decimal.Zero, Date: "2026-10-14"}))
		require.NoError(t, tx.DecrementStock(ctx, item.ID, 1, database.DecrementAllow))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := l.GetStock(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	bills, err := l.ListBillsBetween(ctx, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestListBillsBetweenIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))

	day := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{day.Add(-time.Second), day, day.Add(12 * time.Hour), day.Add(24 * time.Hour)} {
		bill := models.Bill{Total: decimal.NewFromInt(10), Cash: decimal.NewFromInt(10), UPI: decimal.Zero, Date: at.Format("2006-01-02"), CreatedAt: at}
		require.NoError(t, l.InsertBill(ctx, &bill))
	}

	bills, err := l.ListBillsBetween(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.True(t, bills[0].CreatedAt.After(bills[1].CreatedAt))
}

func TestCommitIntents(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))

	require.NoError(t, l.RecordIntent(ctx, &models.CommitIntent{ID: "a", Payload: "{}"}))
	require.NoError(t, l.RecordIntent(ctx, &models.CommitIntent{ID: "b", Payload: "{}"}))

	billID := uint(7)
	require.NoError(t, l.UpdateIntent(ctx, "a", &billID, models.IntentComplete, ""))

	pending, err := l.ListPendingIntents(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestGetBillPreloadsItems(t *testing.T) {
	ctx := context.Background()
	l := database.NewLedger(databasetest.Open(t))

	bill := models.Bill{Total: decimal.NewFromInt(70), Cash: decimal.NewFromInt(70), UPI: decimal.Zero, Date: "2026-10-14"}
	require.NoError(t, l.InsertBill(ctx, &bill))
	require.NoError(t, l.InsertBillItem(ctx, &models.BillItem{BillID: bill.ID, ItemName: "Cone", Qty: 2, Price: decimal.NewFromInt(20), Subtotal: decimal.NewFromInt(40)}))

	got, err := l.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cone", got.Items[0].ItemName)

	_, err = l.GetBill(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
