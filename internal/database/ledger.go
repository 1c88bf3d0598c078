package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DecrementMode decides what a relative stock decrement does when stock runs short.
type DecrementMode int

const (
	DecrementAllow   DecrementMode = iota // may go negative
	DecrementClamp                        // floors at zero
	DecrementGuarded                      // refuses with ErrInsufficientStock
)

type StockFilter struct {
	Query      string
	CategoryID uint
}

// StockUpdate is the partial edit form. Nil fields are left untouched.
type StockUpdate struct {
	Name       *string
	Variant    *string
	CategoryID *uint
	Price      *decimal.Decimal
	Quantity   *int
}

// Store is everything the billing, inventory and report code needs from persistence.
type Store interface {
	ListStock(ctx context.Context, filter StockFilter) ([]models.StockItem, error)
	GetStock(ctx context.Context, id uint) (*models.StockItem, error)
	CreateStock(ctx context.Context, item *models.StockItem) error
	UpdateStock(ctx context.Context, id uint, update StockUpdate) (*models.StockItem, error)
	DeleteStock(ctx context.Context, id uint) error
	SetStockQuantity(ctx context.Context, id uint, quantity int) error
	DecrementStock(ctx context.Context, id uint, qty int, mode DecrementMode) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	InsertBill(ctx context.Context, bill *models.Bill) error
	InsertBillItem(ctx context.Context, item *models.BillItem) error
	GetBill(ctx context.Context, id uint) (*models.Bill, error)
	ListBillsBetween(ctx context.Context, from, to time.Time) ([]models.Bill, error)

	RecordIntent(ctx context.Context, intent *models.CommitIntent) error
	UpdateIntent(ctx context.Context, id string, billID *uint, status, lastErr string) error
	ListPendingIntents(ctx context.Context) ([]models.CommitIntent, error)

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type Ledger struct {
	db *gorm.DB
}

var _ Store = (*Ledger)(nil)

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) DB() *gorm.DB {
	return l.db
}

// WithinTx runs fn against a ledger bound to a single transaction.
func (l *Ledger) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Ledger{db: tx})
	})
}

// --- stock ---

func (l *Ledger) ListStock(ctx context.Context, filter StockFilter) ([]models.StockItem, error) {
	items := []models.StockItem{}
	query := l.db.WithContext(ctx).Preload("Category").Order("name asc")

	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, readErr("stock", err)
	}
	return items, nil
}

func (l *Ledger) GetStock(ctx context.Context, id uint) (*models.StockItem, error) {
	var item models.StockItem
	if err := l.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (l *Ledger) CreateStock(ctx context.Context, item *models.StockItem) error {
	return l.db.WithContext(ctx).Omit("Category").Create(item).Error
}

func (l *Ledger) UpdateStock(ctx context.Context, id uint, update StockUpdate) (*models.StockItem, error) {
	item, err := l.GetStock(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Variant != nil {
		fields["variant"] = *update.Variant
	}
	if update.CategoryID != nil {
		fields["category_id"] = *update.CategoryID
	}
	if update.Price != nil {
		fields["price"] = *update.Price
	}
	if update.Quantity != nil {
		fields["quantity"] = *update.Quantity
	}
	if len(fields) == 0 {
		return item, nil
	}

	if err := l.db.WithContext(ctx).Model(&models.StockItem{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return l.GetStock(ctx, id)
}

func (l *Ledger) DeleteStock(ctx context.Context, id uint) error {
	result := l.db.WithContext(ctx).Delete(&models.StockItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStockQuantity writes an absolute quantity without reading the current row.
func (l *Ledger) SetStockQuantity(ctx context.Context, id uint, quantity int) error {
	return l.db.WithContext(ctx).Model(&models.StockItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// DecrementStock subtracts qty relative to the stored value in a single statement.
func (l *Ledger) DecrementStock(ctx context.Context, id uint, qty int, mode DecrementMode) error {
	query := l.db.WithContext(ctx).Model(&models.StockItem{})

	var result *gorm.DB
	switch mode {
	case DecrementClamp:
		result = query.Where("id = ?", id).
			Update("quantity", gorm.Expr("CASE WHEN quantity >= ? THEN quantity - ? ELSE 0 END", qty, qty))
	case DecrementGuarded:
		result = query.Where("id = ? AND quantity >= ?", id, qty).
			Update("quantity", gorm.Expr("quantity - ?", qty))
	default:
		result = query.Where("id = ?", id).
			Update("quantity", gorm.Expr("quantity - ?", qty))
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing matched: either the item is gone or the guard refused.
	if _, err := l.GetStock(ctx, id); err != nil {
		return err
	}
	if mode == DecrementGuarded {
		return ErrInsufficientStock
	}
	return nil
}

// --- categories ---

func (l *Ledger) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := l.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, readErr("categories", err)
	}
	return categories, nil
}

func (l *Ledger) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := l.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (l *Ledger) CreateCategory(ctx context.Context, category *models.Category) error {
	return l.db.WithContext(ctx).Create(category).Error
}

// --- bills ---

func (l *Ledger) InsertBill(ctx context.Context, bill *models.Bill) error {
	return l.db.WithContext(ctx).Omit("Items").Create(bill).Error
}

func (l *Ledger) InsertBillItem(ctx context.Context, item *models.BillItem) error {
	return l.db.WithContext(ctx).Create(item).Error
}

func (l *Ledger) GetBill(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := l.db.WithContext(ctx).Preload("Items").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}
