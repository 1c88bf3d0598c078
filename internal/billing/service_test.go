package billing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 14, 20, 30, 0, 0, time.UTC) // 02:00 on the 15th in Kolkata

type fixture struct {
	db     *gorm.DB
	ledger *database.Ledger
	cone   models.StockItem
	cup    models.StockItem
}

func newFixture(t *testing.T, coneQty, cupQty int) *fixture {
	t.Helper()
	ctx := context.Background()
	db := databasetest.Open(t)
	l := database.NewLedger(db)

	cat := models.Category{Name: "Ice Cream"}
	require.NoError(t, l.CreateCategory(ctx, &cat))
	cone := models.StockItem{Name: "Cone", CategoryID: cat.ID, Price: decimal.NewFromInt(20), Quantity: coneQty}
	cup := models.StockItem{Name: "Cup", CategoryID: cat.ID, Price: decimal.NewFromInt(30), Quantity: cupQty}
	require.NoError(t, l.CreateStock(ctx, &cone))
	require.NoError(t, l.CreateStock(ctx, &cup))

	return &fixture{db: db, ledger: l, cone: cone, cup: cup}
}

func (f *fixture) service(mode CommitMode, policy StockPolicy) *Service {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return NewService(f.ledger, Options{
		Mode:     mode,
		Policy:   policy,
		Location: loc,
		Now:      func() time.Time { return fixedNow },
		Logger:   logg,
	})
}

// scenarioCart is two cones and one cup: total 70.
func (f *fixture) scenarioCart() cart.Cart {
	var c cart.Cart
	c.AddLine(f.cone, f.cone.Quantity)
	c.AddLine(f.cone, f.cone.Quantity)
	c.AddLine(f.cup, f.cup.Quantity)
	return c
}

func (f *fixture) quantity(t *testing.T, id uint) int {
	t.Helper()
	item, err := f.ledger.GetStock(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func (f *fixture) counts(t *testing.T) (bills, items int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Bill{}).Count(&bills).Error)
	require.NoError(t, f.db.Model(&models.BillItem{}).Count(&items).Error)
	return bills, items
}

func failOn(t *testing.T, db *gorm.DB, op string, table string, err error) {
	t.Helper()
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(err)
		}
	}
	switch op {
	case "create":
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, hook))
	case "update":
		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_"+table, hook))
	}
}

func rupees(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// --- spy store: counts every call that reaches persistence ---

type spyStore struct {
	database.Store
	calls int
}

func (s *spyStore) WithinTx(ctx context.Context, fn func(tx database.Store) error) error {
	s.calls++
	return s.Store.WithinTx(ctx, fn)
}

func (s *spyStore) InsertBill(ctx context.Context, bill *models.Bill) error {
	s.calls++
	return s.Store.InsertBill(ctx, bill)
}

func (s *spyStore) RecordIntent(ctx context.Context, intent *models.CommitIntent) error {
	s.calls++
	return s.Store.RecordIntent(ctx, intent)
}

// --- Tests ---

func TestValidateOrder(t *testing.T) {
	var full cart.Cart
	full.AddLine(models.StockItem{ID: 1, Name: "Cone", Price: rupees(20)}, 5)

	testCases := []struct {
		name     string
		req      Request
		expected string
	}{
		{name: "seller wins over everything", req: Request{Seller: "  ", Cash: rupees(1)}, expected: MsgSellerRequired},
		{name: "empty cart regardless of payment", req: Request{Seller: "Asha", Cash: rupees(0)}, expected: MsgCartEmpty},
		{name: "empty cart with payment", req: Request{Seller: "Asha", Cash: rupees(70)}, expected: MsgCartEmpty},
		{name: "underpaid", req: Request{Seller: "Asha", Cart: full, Cash: rupees(10), UPI: rupees(5)}, expected: MsgPaymentMismatch},
		{name: "overpaid", req: Request{Seller: "Asha", Cart: full, Cash: rupees(20), UPI: rupees(1)}, expected: MsgPaymentMismatch},
		{name: "split payment matches", req: Request{Seller: "Asha", Cart: full, Cash: rupees(5), UPI: rupees(15)}},
		{name: "only the sum is checked", req: Request{Seller: "Asha", Cart: full, Cash: rupees(-10), UPI: rupees(30)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			if tc.expected == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func TestCommitScenario(t *testing.T) {
	for _, mode := range []CommitMode{ModeTransactional, ModeOverwrite} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, 10, 6)
			svc := f.service(mode, PolicyReject)

			receipt, err := svc.Commit(context.Background(), Request{
				Cart:    f.scenarioCart(),
				Seller:  " Asha ",
				Contact: "98765 43210",
				Cash:    rupees(70),
				UPI:     rupees(0),
			})
			require.NoError(t, err)

			assert.NotZero(t, receipt.Bill.ID)
			assert.True(t, rupees(70).Equal(receipt.Bill.Total))
			assert.True(t, rupees(70).Equal(receipt.Bill.Cash))
			assert.True(t, decimal.Zero.Equal(receipt.Bill.UPI))
			assert.Equal(t, "2026-10-15", receipt.Bill.Date)
			assert.Equal(t, "Asha", receipt.Seller)
			assert.Equal(t, "+919876543210", receipt.Contact)
			require.Len(t, receipt.Lines, 2)

			stored, err := f.ledger.GetBill(context.Background(), receipt.Bill.ID)
			require.NoError(t, err)
			require.Len(t, stored.Items, 2)
			assert.Equal(t, "Cone", stored.Items[0].ItemName)
			assert.Equal(t, 2, stored.Items[0].Qty)
			assert.True(t, rupees(20).Equal(stored.Items[0].Price))
			assert.True(t, rupees(40).Equal(stored.Items[0].Subtotal))
			assert.Equal(t, 1, stored.Items[1].Qty)
			assert.True(t, rupees(30).Equal(stored.Items[1].Subtotal))

			sum := decimal.Zero
			for _, it := range stored.Items {
				sum = sum.Add(it.Subtotal)
			}
			assert.True(t, stored.Total.Equal(sum))

			assert.Equal(t, 8, f.quantity(t, f.cone.ID))
			assert.Equal(t, 5, f.quantity(t, f.cup.ID))

			pending, err := svc.PendingCommits(context.Background())
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestCommitPaymentMismatchWritesNothing(t *testing.T) {
	for _, mode := range []CommitMode{ModeTransactional, ModeOverwrite} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, 10, 6)
			spy := &spyStore{Store: f.ledger}
			svc := NewService(spy, Options{Mode: mode})

			_, err := svc.Commit(context.Background(), Request{
				Cart:   f.scenarioCart(),
				Seller: "Asha",
				Cash:   rupees(50),
				UPI:    rupees(10),
			})
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, MsgPaymentMismatch, err.Error())
			assert.Zero(t, spy.calls)

			bills, items := f.counts(t)
			assert.Zero(t, bills)
			assert.Zero(t, items)
			assert.Equal(t, 10, f.quantity(t, f.cone.ID))
			assert.Equal(t, 6, f.quantity(t, f.cup.ID))
		})
	}
}

func TestCommitEmptyCart(t *testing.T) {
	f := newFixture(t, 10, 6)
	spy := &spyStore{Store: f.ledger}
	svc := NewService(spy, Options{})

	_, err := svc.Commit(context.Background(), Request{Seller: "Asha", Cash: rupees(70)})
	require.Error(t, err)
	assert.Equal(t, MsgCartEmpty, err.Error())
	assert.Zero(t, spy.calls)
}

func TestCommitStockPolicies(t *testing.T) {
	testCases := []struct {
		name         string
		mode         CommitMode
		policy       StockPolicy
		expectCommit bool
		expectedCone int
	}{
		{name: "transactional allow goes negative", mode: ModeTransactional, policy: PolicyAllow, expectCommit: true, expectedCone: -1},
		{name: "transactional clamp floors", mode: ModeTransactional, policy: PolicyClamp, expectCommit: true, expectedCone: 0},
		{name: "transactional reject rolls back", mode: ModeTransactional, policy: PolicyReject, expectCommit: false, expectedCone: 1},
		{name: "overwrite allow goes negative", mode: ModeOverwrite, policy: PolicyAllow, expectCommit: true, expectedCone: -1},
		{name: "overwrite clamp floors", mode: ModeOverwrite, policy: PolicyClamp, expectCommit: true, expectedCone: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 1, 6)
			svc := f.service(tc.mode, tc.policy)

			var c cart.Cart
			c.AddLine(f.cone, f.cone.Quantity)
			require.NoError(t, c.ChangeQty(0, 1)) // two cones against one in stock

			_, err := svc.Commit(context.Background(), Request{Cart: c, Seller: "Asha", Cash: rupees(40)})
			if tc.expectCommit {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, IsCommit(err))
				assert.ErrorIs(t, err, database.ErrInsufficientStock)
				bills, items := f.counts(t)
				assert.Zero(t, bills)
				assert.Zero(t, items)
			}
			assert.Equal(t, tc.expectedCone, f.quantity(t, f.cone.ID))
		})
	}
}

func TestCommitOverwriteRejectLeavesPartialState(t *testing.T) {
	f := newFixture(t, 1, 6)
	svc := f.service(ModeOverwrite, PolicyReject)

	var c cart.Cart
	c.AddLine(f.cup, f.cup.Quantity)
	c.AddLine(f.cone, f.cone.Quantity)
	require.NoError(t, c.ChangeQty(1, 1))

	_, err := svc.Commit(context.Background(), Request{Cart: c, Seller: "Asha", Cash: rupees(70)})
	require.Error(t, err)

	var ce *CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageStock, ce.Stage)
	require.NotNil(t, ce.BillID)
	assert.NotEmpty(t, ce.IntentID)

	// Bill and items were written and the cup was already overwritten.
	bills, items := f.counts(t)
	assert.EqualValues(t, 1, bills)
	assert.EqualValues(t, 2, items)
	assert.Equal(t, 5, f.quantity(t, f.cup.ID))
	assert.Equal(t, 1, f.quantity(t, f.cone.ID))

	pending, err := svc.PendingCommits(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ce.IntentID, pending[0].ID)
	require.NotNil(t, pending[0].BillID)
	assert.Equal(t, *ce.BillID, *pending[0].BillID)
	assert.Contains(t, pending[0].LastError, "insufficient stock")
}

func TestCommitPersistenceFailure(t *testing.T) {
	boom := errors.New("network timeout")

	testCases := []struct {
		name          string
		mode          CommitMode
		op, table     string
		expectedStage string
		expectedBills int64
		expectedItems int64
		expectedCone  int
		expectPending bool
	}{
		{name: "transactional bill insert", mode: ModeTransactional, op: "create", table: "bills", expectedStage: StageBill, expectedCone: 10},
		{name: "transactional item insert rolls back bill", mode: ModeTransactional, op: "create", table: "bill_items", expectedStage: StageBillItems, expectedCone: 10},
		{name: "transactional stock update rolls back all", mode: ModeTransactional, op: "update", table: "stock", expectedStage: StageStock, expectedCone: 10},
		{name: "overwrite item insert keeps bill", mode: ModeOverwrite, op: "create", table: "bill_items", expectedStage: StageBillItems, expectedBills: 1, expectedCone: 10, expectPending: true},
		{name: "overwrite stock update keeps bill and items", mode: ModeOverwrite, op: "update", table: "stock", expectedStage: StageStock, expectedBills: 1, expectedItems: 2, expectedCone: 10, expectPending: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 10, 6)
			svc := f.service(tc.mode, PolicyReject)
			failOn(t, f.db, tc.op, tc.table, boom)

			_, err := svc.Commit(context.Background(), Request{Cart: f.scenarioCart(), Seller: "Asha", Cash: rupees(70)})
			require.Error(t, err)

			var ce *CommitError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.expectedStage, ce.Stage)
			assert.Contains(t, err.Error(), "network timeout")

			bills, items := f.counts(t)
			assert.Equal(t, tc.expectedBills, bills)
			assert.Equal(t, tc.expectedItems, items)
			assert.Equal(t, tc.expectedCone, f.quantity(t, f.cone.ID))

			pending, err := svc.PendingCommits(context.Background())
			require.NoError(t, err)
			if tc.expectPending {
				assert.Len(t, pending, 1)
			} else {
				assert.Empty(t, pending)
			}
		})
	}
}

// Two bills built from the same stock read (quantity 5) taking 3 and 4.
func TestCommitStaleReads(t *testing.T) {
	testCases := []struct {
		name          string
		mode          CommitMode
		policy        StockPolicy
		secondCommits bool
		expectedFinal int
	}{
		// Blind overwrite loses the first deduction: 5-4 instead of 5-3-4.
		{name: "overwrite loses an update", mode: ModeOverwrite, policy: PolicyAllow, secondCommits: true, expectedFinal: 1},
		{name: "transactional allow keeps both deductions", mode: ModeTransactional, policy: PolicyAllow, secondCommits: true, expectedFinal: -2},
		{name: "transactional reject refuses the second bill", mode: ModeTransactional, policy: PolicyReject, secondCommits: false, expectedFinal: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 5, 6)
			svc := f.service(tc.mode, tc.policy)

			build := func(qty int) cart.Cart {
				var c cart.Cart
				c.AddLine(f.cone, f.cone.Quantity) // both see quantity 5
				require.NoError(t, c.ChangeQty(0, qty-1))
				return c
			}
			first, second := build(3), build(4)

			_, err := svc.Commit(context.Background(), Request{Cart: first, Seller: "A", Cash: rupees(60)})
			require.NoError(t, err)

			_, err = svc.Commit(context.Background(), Request{Cart: second, Seller: "B", UPI: rupees(80)})
			if tc.secondCommits {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, database.ErrInsufficientStock)
			}
			assert.Equal(t, tc.expectedFinal, f.quantity(t, f.cone.ID))
		})
	}
}
