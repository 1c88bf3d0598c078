package report

import (
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
)

type StockSummary struct {
	ItemCount     int             `json:"item_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
	Threshold     int             `json:"low_stock_threshold"`
}

// SummarizeStock values the shelf at selling price and counts items below threshold.
func SummarizeStock(items []models.StockItem, threshold int) StockSummary {
	s := StockSummary{TotalValue: decimal.Zero, Threshold: threshold, ItemCount: len(items)}
	for _, it := range items {
		s.TotalValue = s.TotalValue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		if it.Quantity < threshold {
			s.LowStockCount++
		}
	}
	return s
}
