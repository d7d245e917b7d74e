package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, user_id, method, amount, currency, status,
			transaction_id, provider_response, created_at, updated_at
		 FROM payments
		 WHERE transaction_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		transactionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateByTransactionID(ctx context.Context, db *gorm.DB, transactionID string, status domain.Status, snapshot []byte, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, provider_response = ?, updated_at = ?
		 WHERE transaction_id = ?`,
		status,
		snapshot,
		now,
		transactionID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, transaction_id, status, payload, created_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.TransactionID,
		event.Status,
		event.Payload,
		event.CreatedAt,
		event.ProcessedAt,
	).Error
}

func (r *repo) ListUnprocessedEvents(ctx context.Context, db *gorm.DB, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var items []domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, transaction_id, status, payload, created_at, processed_at
		 FROM payment_events
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT ?`,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_events
		 SET processed_at = ?
		 WHERE id = ?`,
		processedAt,
		id,
	).Error
}
