package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - A staff member allowed to open the billing screen
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:120" json:"email"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Category - Static reference data used to filter the product menu
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// StockItem - The Inventory
type StockItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"size:150;not null" json:"name"`
	Variant    string          `gorm:"size:100" json:"variant"` // e.g. "100ml", "5rs"
	CategoryID uint            `gorm:"index" json:"category_id"`
	Category   *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity   int             `gorm:"not null;default:0" json:"quantity"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (StockItem) TableName() string {
	return "stock"
}

// Bill - The Transaction Header
type Bill struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Cash      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cash"`
	UPI       decimal.Decimal `gorm:"column:upi;type:decimal(10,2);not null" json:"upi"`
	Date      string          `gorm:"size:10;index" json:"date"` // YYYY-MM-DD in the store time zone
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	Items     []BillItem      `gorm:"foreignKey:BillID" json:"items,omitempty"`
}

// BillItem - Snapshot of one cart line, independent of later stock edits
type BillItem struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	BillID   uint            `gorm:"index;not null" json:"bill_id"`
	ItemName string          `gorm:"size:150;not null" json:"item_name"`
	Qty      int             `gorm:"not null" json:"qty"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Subtotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}

const (
	IntentPending  = "pending"
	IntentComplete = "complete"
)

// CommitIntent - Written before a non-transactional commit touches the ledger
// and marked complete after the last stock write. Pending rows mark partial commits.
type CommitIntent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BillID    *uint     `json:"bill_id"`
	Payload   string    `gorm:"type:text" json:"payload"`
	Status    string    `gorm:"size:16;index" json:"status"`
	LastError string    `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
