package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]ItemView, error)

	// TransitionFromPending applies the status change only when the order is
	// still pending; the WHERE clause is the compare-and-swap making the gate
	// safe under concurrent event delivery. A nil paymentStatus leaves that
	// column untouched. Returns whether a row changed.
	TransitionFromPending(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, paymentStatus *PaymentStatus, now time.Time) (bool, error)
}
