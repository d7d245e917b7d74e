package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Strategy is the fixed capability surface every payment backend implements.
type Strategy interface {
	// Method returns the discriminator this backend is registered under.
	Method() string
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	// Confirm resolves the transaction at the backend, persists the
	// normalized status and returns the updated payment. Backends that do
	// not recognize the identifier return ErrObjectNotFound or
	// ErrTransactionNotFound so the caller can try the next backend.
	Confirm(ctx context.Context, transactionID string) (*Payment, error)
	Cancel(ctx context.Context, transactionID string) (*Payment, error)
}

// Emitter publishes a persisted status change to the order reactor.
// Emission is fire-and-forget: callers do not wait on handling.
type Emitter interface {
	EmitStatusChanged(ctx context.Context, transactionID string, status Status, payload []byte)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*Payment, error)
	UpdateByTransactionID(ctx context.Context, db *gorm.DB, transactionID string, status Status, snapshot []byte, now time.Time) (int64, error)

	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	ListUnprocessedEvents(ctx context.Context, db *gorm.DB, limit int) ([]Event, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}
