package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CommitMode string

const (
	// ModeTransactional writes bill, items and stock in one transaction and
	// decrements stock relative to the stored quantity.
	ModeTransactional CommitMode = config.CommitModeTransactional
	// ModeOverwrite writes one row at a time and overwrites stock with
	// quantity-at-add minus qty. Progress is tracked in a commit intent.
	ModeOverwrite CommitMode = config.CommitModeOverwrite
)

// StockPolicy decides what happens when a commit would take stock below zero.
type StockPolicy string

const (
	PolicyAllow  StockPolicy = config.StockPolicyAllow
	PolicyClamp  StockPolicy = config.StockPolicyClamp
	PolicyReject StockPolicy = config.StockPolicyReject
)

const (
	StageIntent    = "intent"
	StageBill      = "bill"
	StageBillItems = "bill_items"
	StageStock     = "stock"
	StageCommit    = "commit"
)

type Options struct {
	Mode     CommitMode
	Policy   StockPolicy
	Location *time.Location
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

type Service struct {
	store  database.Store
	mode   CommitMode
	policy StockPolicy
	loc    *time.Location
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewService(store database.Store, opts Options) *Service {
	if opts.Mode == "" {
		opts.Mode = ModeTransactional
	}
	if opts.Policy == "" {
		opts.Policy = PolicyReject
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		store:  store,
		mode:   opts.Mode,
		policy: opts.Policy,
		loc:    opts.Location,
		now:    opts.Now,
		log:    opts.Logger,
	}
}

type Request struct {
	Cart    cart.Cart
	Seller  string
	Contact string
	Cash    decimal.Decimal
	UPI     decimal.Decimal
}

// Receipt is what the counter prints after a successful commit.
type Receipt struct {
	Bill    models.Bill `json:"bill"`
	Lines   []cart.Line `json:"lines"`
	Seller  string      `json:"seller"`
	Contact string      `json:"contact,omitempty"`
}

// Validate checks the preconditions in order; the first failure wins.
func Validate(req Request) error {
	if strings.TrimSpace(req.Seller) == "" {
		return newValidationError(MsgSellerRequired)
	}
	if req.Cart.IsEmpty() {
		return newValidationError(MsgCartEmpty)
	}
	if !req.Cash.Add(req.UPI).Equal(req.Cart.Total()) {
		return newValidationError(MsgPaymentMismatch)
	}
	return nil
}

// Commit records the bill and its items and reconciles stock for every line.
func (s *Service) Commit(ctx context.Context, req Request) (*Receipt, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	bill := models.Bill{
		Total:     req.Cart.Total(),
		Cash:      req.Cash,
		UPI:       req.UPI,
		Date:      now.In(s.loc).Format("2006-01-02"),
		CreatedAt: now.UTC(),
	}
	lines := req.Cart.Clone().Lines

	var err error
	switch s.mode {
	case ModeOverwrite:
		err = s.commitOverwrite(ctx, &bill, lines)
	default:
		err = s.store.WithinTx(ctx, func(tx database.Store) error {
			return s.write(ctx, tx, &bill, lines)
		})
		var ce *CommitError
		if errors.As(err, &ce) {
			// rolled back, nothing of this bill survives
			ce.BillID = nil
		} else if err != nil {
			err = &CommitError{Stage: StageCommit, Err: err}
		}
	}
	if err != nil {
		config.LogError(s.log, "billing", "Commit", "commit bill", map[string]any{
			"mode":  s.mode,
			"total": bill.Total.String(),
			"lines": len(lines),
		}, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bill_id": bill.ID,
		"total":   bill.Total.String(),
		"lines":   len(lines),
		"mode":    s.mode,
	}).Info("bill committed")

	return &Receipt{
		Bill:    bill,
		Lines:   lines,
		Seller:  strings.TrimSpace(req.Seller),
		Contact: utils.NormalizeContact(req.Contact, utils.DefaultPhoneRegion),
	}, nil
}

func (s *Service) write(ctx context.Context, store database.Store, bill *models.Bill, lines []cart.Line) error {
	if err := store.InsertBill(ctx, bill); err != nil {
		return &CommitError{Stage: StageBill, Err: err}
	}
	billID := bill.ID

	for _, l := range lines {
		item := models.BillItem{
			BillID:   bill.ID,
			ItemName: l.Name,
			Qty:      l.Qty,
			Price:    l.Price,
			Subtotal: l.Subtotal(),
		}
		if err := store.InsertBillItem(ctx, &item); err != nil {
			return &CommitError{Stage: StageBillItems, BillID: &billID, Err: err}
		}
		bill.Items = append(bill.Items, item)
	}

	for _, l := range lines {
		if err := s.reconcile(ctx, store, l); err != nil {
			return &CommitError{Stage: StageStock, BillID: &billID, Err: fmt.Errorf("%s: %w", l.Name, err)}
		}
	}
	return nil
}

func (s *Service) reconcile(ctx context.Context, store database.Store, l cart.Line) error {
	if s.mode != ModeOverwrite {
		return store.DecrementStock(ctx, l.ItemID, l.Qty, s.decrementMode())
	}

	// Absolute write from the quantity seen when the line was added.
	next := l.QuantityAtAdd - l.Qty
	if next < 0 {
		switch s.policy {
		case PolicyClamp:
			next = 0
		case PolicyReject:
			return database.ErrInsufficientStock
		}
	}
	return store.SetStockQuantity(ctx, l.ItemID, next)
}

func (s *Service) decrementMode() database.DecrementMode {
	switch s.policy {
	case PolicyAllow:
		return database.DecrementAllow
	case PolicyClamp:
		return database.DecrementClamp
	}
	return database.DecrementGuarded
}

type intentPayload struct {
	Total string      `json:"total"`
	Cash  string      `json:"cash"`
	UPI   string      `json:"upi"`
	Date  string      `json:"date"`
	Lines []cart.Line `json:"lines"`
}

func (s *Service) commitOverwrite(ctx context.Context, bill *models.Bill, lines []cart.Line) error {
	payload, err := json.Marshal(intentPayload{
		Total: bill.Total.String(),
		Cash:  bill.Cash.String(),
		UPI:   bill.UPI.String(),
		Date:  bill.Date,
		Lines: lines,
	})
	if err != nil {
		return &CommitError{Stage: StageIntent, Err: err}
	}

	intent := models.CommitIntent{
		ID:      uuid.NewString(),
		Payload: string(payload),
		Status:  models.IntentPending,
	}
	if err := s.store.RecordIntent(ctx, &intent); err != nil {
		return &CommitError{Stage: StageIntent, Err: err}
	}

	if err := s.write(ctx, s.store, bill, lines); err != nil {
		var ce *CommitError
		if !errors.As(err, &ce) {
			ce = &CommitError{Stage: StageBill, Err: err}
		}
		ce.IntentID = intent.ID
		if uerr := s.store.UpdateIntent(ctx, intent.ID, ce.BillID, models.IntentPending, err.Error()); uerr != nil {
			config.LogError(s.log, "billing", "commitOverwrite", "record partial commit", intent.ID, uerr)
		}
		return ce
	}

	billID := bill.ID
	if err := s.store.UpdateIntent(ctx, intent.ID, &billID, models.IntentComplete, ""); err != nil {
		// Every write landed; the intent just stays pending and shows up for review.
		config.LogError(s.log, "billing", "commitOverwrite", "complete intent", intent.ID, err)
	}
	return nil
}

// PendingCommits lists overwrite-mode commits that did not finish every write.
func (s *Service) PendingCommits(ctx context.Context) ([]models.CommitIntent, error) {
	return s.store.ListPendingIntents(ctx)
}
