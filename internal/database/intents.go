package database

import (
	"context"

	"go-pos-billing/internal/models"
)

func (l *Ledger) RecordIntent(ctx context.Context, intent *models.CommitIntent) error {
	if intent.Status == "" {
		intent.Status = models.IntentPending
	}
	return l.db.WithContext(ctx).Create(intent).Error
}

func (l *Ledger) UpdateIntent(ctx context.Context, id string, billID *uint, status, lastErr string) error {
	fields := map[string]interface{}{
		"status":     status,
		"last_error": lastErr,
	}
	if billID != nil {
		fields["bill_id"] = *billID
	}
	return l.db.WithContext(ctx).Model(&models.CommitIntent{}).Where("id = ?", id).Updates(fields).Error
}

// ListPendingIntents returns commits that started but never finished every write.
func (l *Ledger) ListPendingIntents(ctx context.Context) ([]models.CommitIntent, error) {
	intents := []models.CommitIntent{}
	err := l.db.WithContext(ctx).
		Where("status = ?", models.IntentPending).
		Order("created_at asc").
		Find(&intents).Error
	if err != nil {
		return nil, readErr("commit intents", err)
	}
	return intents, nil
}
