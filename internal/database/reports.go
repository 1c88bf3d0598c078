package database

import (
	"context"
	"time"

	"go-pos-billing/internal/models"
)

// ListBillsBetween returns bills created in the half-open range [from, to), newest first.
// Timestamps are compared in UTC, the zone bills are written in.
func (l *Ledger) ListBillsBetween(ctx context.Context, from, to time.Time) ([]models.Bill, error) {
	bills := []models.Bill{}
	err := l.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at desc").
		Find(&bills).Error
	if err != nil {
		return nil, readErr("bills", err)
	}
	return bills, nil
}
