package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrSKUNotFound = errors.New("sku not found")

type Product struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// SKU is a specific purchasable variant of a product with its own price and
// stock count.
type SKU struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID snowflake.ID `json:"product_id" gorm:"not null;index"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Price     float64      `json:"price" gorm:"type:numeric(12,2);not null"`
	Stock     int64        `json:"stock" gorm:"not null"`
	ImageURL  string       `json:"image_url" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (SKU) TableName() string { return "skus" }

type Repository interface {
	FindSKU(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SKU, error)
	// DecrementStock reserves quantity units, failing when fewer remain.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int64, now time.Time) (bool, error)
}
