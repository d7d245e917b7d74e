package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Order struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	UserID        snowflake.ID  `json:"user_id" gorm:"not null;index"`
	Number        string        `json:"number" gorm:"type:text;not null;uniqueIndex"`
	Status        Status        `json:"status" gorm:"type:text;not null"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:text;not null"`
	TotalAmount   float64       `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Items         []OrderItem   `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots the SKU at time of purchase so historical orders are
// unaffected by later catalog edits.
type OrderItem struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID   snowflake.ID `json:"order_id" gorm:"not null;index"`
	SKUID     snowflake.ID `json:"sku_id" gorm:"column:sku_id;not null"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Code      string       `json:"code" gorm:"type:text;not null"`
	Quantity  int64        `json:"quantity" gorm:"not null"`
	UnitPrice float64      `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	LineTotal float64      `json:"line_total" gorm:"type:numeric(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// ItemView is an order item joined with its SKU's current image, used by
// notification rendering.
type ItemView struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	ImageURL  string  `json:"image_url"`
}
