package cart

import (
	"errors"

	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound = errors.New("cart line not found")
	ErrQtyBelowOne  = errors.New("quantity must stay at least 1")
)

// Line is one selected item. Price and QuantityAtAdd are copied when the line
// is first added and are never re-read from stock.
type Line struct {
	ItemID        uint            `json:"item_id"`
	Name          string          `json:"name"`
	Variant       string          `json:"variant,omitempty"`
	Qty           int             `json:"qty"`
	Price         decimal.Decimal `json:"price"`
	QuantityAtAdd int             `json:"quantity_at_add"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Cart struct {
	Lines []Line `json:"lines"`
}

// AddLine bumps an existing line by one or appends a new line with qty 1.
// Items with nothing available are ignored; the return value reports whether the cart changed.
func (c *Cart) AddLine(item models.StockItem, availableQty int) bool {
	if availableQty == 0 {
		return false
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == item.ID {
			c.Lines[i].Qty++
			return true
		}
	}
	c.Lines = append(c.Lines, Line{
		ItemID:        item.ID,
		Name:          item.Name,
		Variant:       item.Variant,
		Qty:           1,
		Price:         item.Price,
		QuantityAtAdd: availableQty,
	})
	return true
}

// ChangeQty applies delta only when the result stays positive. Reaching zero
// does not remove the line; use RemoveLine for that.
func (c *Cart) ChangeQty(index, delta int) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineNotFound
	}
	next := c.Lines[index].Qty + delta
	if next <= 0 {
		return ErrQtyBelowOne
	}
	c.Lines[index].Qty = next
	return nil
}

func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return nil
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}
