package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindSKU(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SKU, error) {
	var item domain.SKU
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, code, name, price, stock, image_url, created_at, updated_at
		 FROM skus
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

func (r *repo) DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE skus
		 SET stock = stock - ?, updated_at = ?
		 WHERE id = ? AND stock >= ?`,
		quantity,
		now,
		id,
		quantity,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
