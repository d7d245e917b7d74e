package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			if err := tx.Create(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, number, status, payment_status, total_amount, created_at, updated_at
		 FROM orders
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.ItemView, error) {
	var items []domain.ItemView
	err := db.WithContext(ctx).Raw(
		`SELECT oi.name, oi.code, oi.quantity, oi.unit_price, oi.line_total,
			COALESCE(s.image_url, '') AS image_url
		 FROM order_items oi
		 LEFT JOIN skus s ON s.id = oi.sku_id
		 WHERE oi.order_id = ?
		 ORDER BY oi.id`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) TransitionFromPending(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, paymentStatus *domain.PaymentStatus, now time.Time) (bool, error) {
	var res *gorm.DB
	if paymentStatus != nil {
		res = db.WithContext(ctx).Exec(
			`UPDATE orders
			 SET status = ?, payment_status = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			status,
			*paymentStatus,
			now,
			id,
			domain.StatusPending,
		)
	} else {
		res = db.WithContext(ctx).Exec(
			`UPDATE orders
			 SET status = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			status,
			now,
			id,
			domain.StatusPending,
		)
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
