package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the three-value (plus refunded) simplification of the
// processor's richer state enumeration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Registered payment methods. Lookup is a case-sensitive exact match.
const (
	MethodStripe = "stripe"
	MethodCash   = "cash"
)

// Payment is one attempt to collect funds for an order. Rows are never
// hard-deleted; multiple rows per order are permitted.
type Payment struct {
	ID               snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrderID          snowflake.ID   `json:"order_id" gorm:"not null;index"`
	UserID           snowflake.ID   `json:"user_id" gorm:"not null"`
	Method           string         `json:"method" gorm:"type:text;not null"`
	Amount           float64        `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency         string         `json:"currency" gorm:"type:text;not null"`
	Status           Status         `json:"status" gorm:"type:text;not null"`
	TransactionID    *string        `json:"transaction_id" gorm:"index"`
	ProviderResponse datatypes.JSON `json:"provider_response" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Event is the persisted outbox row for a normalized status change. It is
// written before the in-process emit; unprocessed rows are replayed on
// startup.
type Event struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	TransactionID string         `json:"transaction_id" gorm:"type:text;not null"`
	Status        Status         `json:"status" gorm:"type:text;not null"`
	Payload       datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at"`
	ProcessedAt   *time.Time     `json:"processed_at"`
}

func (Event) TableName() string { return "payment_events" }

// TopicPaymentUpdated is the bus topic carrying StatusChanged payloads.
const TopicPaymentUpdated = "payment.updated"

// StatusChanged is the bus payload emitted after a payment's normalized
// status has been persisted.
type StatusChanged struct {
	EventID       snowflake.ID
	TransactionID string
	Status        Status
}

// CheckoutItem is one line of a hosted-checkout request.
type CheckoutItem struct {
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// CreateRequest asks a backend to start collecting funds for an order.
type CreateRequest struct {
	OrderID            snowflake.ID   `json:"order_id"`
	UserID             snowflake.ID   `json:"user_id"`
	Method             string         `json:"method"`
	Amount             float64        `json:"amount"`
	Currency           string         `json:"currency"`
	Items              []CheckoutItem `json:"items,omitempty"`
	RedirectToCheckout bool           `json:"redirect_to_checkout"`
}

// CreateResult is backend-dependent: direct charges carry a client secret,
// hosted checkouts a redirect URL.
type CreateResult struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
	CheckoutURL  string   `json:"checkout_url,omitempty"`
}
