package reactor

import (
	"context"
	"time"

	"github.com/shopforge/shopforge/internal/events"
	"github.com/shopforge/shopforge/internal/metrics"
	orderdomain "github.com/shopforge/shopforge/internal/order/domain"
	paymentdomain "github.com/shopforge/shopforge/internal/payment/domain"
	"github.com/shopforge/shopforge/internal/providers/email"
	userdomain "github.com/shopforge/shopforge/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	PaymentRepo paymentdomain.Repository
	OrderRepo   orderdomain.Repository
	UserRepo    userdomain.Repository
	Email       email.Provider
	Metrics     *metrics.Metrics `optional:"true"`
}

// Reactor consumes payment.updated events and translates a normalized
// payment status into an order transition plus a customer notification.
// Missing payments, orders or users short-circuit without surfacing an
// error: event payloads referencing stale ids must not crash delivery.
type Reactor struct {
	db          *gorm.DB
	log         *zap.Logger
	paymentRepo paymentdomain.Repository
	orderRepo   orderdomain.Repository
	userRepo    userdomain.Repository
	email       email.Provider
	metrics     *metrics.Metrics
}

func New(p Params) *Reactor {
	return &Reactor{
		db:          p.DB,
		log:         p.Log.Named("order.reactor"),
		paymentRepo: p.PaymentRepo,
		orderRepo:   p.OrderRepo,
		userRepo:    p.UserRepo,
		email:       p.Email,
		metrics:     p.Metrics,
	}
}

// Register subscribes the reactor on the bus.
func (r *Reactor) Register(bus *events.Bus) {
	bus.Subscribe(paymentdomain.TopicPaymentUpdated, func(ctx context.Context, payload any) {
		event, ok := payload.(paymentdomain.StatusChanged)
		if !ok {
			r.log.Warn("unexpected payload on payment.updated topic")
			return
		}
		r.Handle(ctx, event)
	})
}

// Handle processes one status change. The outbox row is marked processed
// when the event was handled or its payload is unresolvable, so a stale
// identifier is not replayed forever. A transient store error leaves the row
// unprocessed for the next replay.
func (r *Reactor) Handle(ctx context.Context, event paymentdomain.StatusChanged) {
	if !r.process(ctx, event) {
		return
	}

	if event.EventID != 0 {
		if err := r.paymentRepo.MarkEventProcessed(ctx, r.db, event.EventID, time.Now().UTC()); err != nil {
			r.log.Warn("failed to mark payment event processed",
				zap.String("transaction_id", event.TransactionID),
				zap.Error(err),
			)
		}
	}
}

// process reports whether the event is finished with: handled, a no-op, or
// referencing rows that no longer exist. False means a transient failure.
func (r *Reactor) process(ctx context.Context, event paymentdomain.StatusChanged) bool {
	if event.Status == paymentdomain.StatusPending {
		return true
	}

	payment, err := r.paymentRepo.FindByTransactionID(ctx, r.db, event.TransactionID)
	if err != nil {
		r.log.Warn("payment lookup failed",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
		return false
	}
	if payment == nil {
		r.log.Warn("payment event without resolvable payment",
			zap.String("transaction_id", event.TransactionID),
		)
		return true
	}

	order, err := r.orderRepo.Find(ctx, r.db, payment.OrderID)
	if err != nil {
		r.log.Warn("order lookup failed",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
		return false
	}
	if order == nil {
		r.log.Warn("payment event without resolvable order",
			zap.String("transaction_id", event.TransactionID),
		)
		return true
	}

	now := time.Now().UTC()
	var changed bool
	switch event.Status {
	case paymentdomain.StatusCompleted:
		paid := orderdomain.PaymentStatusCompleted
		changed, err = r.orderRepo.TransitionFromPending(ctx, r.db, order.ID, orderdomain.StatusProcessing, &paid, now)
		if err == nil && changed {
			order.Status = orderdomain.StatusProcessing
			order.PaymentStatus = orderdomain.PaymentStatusCompleted
		}
	case paymentdomain.StatusFailed:
		changed, err = r.orderRepo.TransitionFromPending(ctx, r.db, order.ID, orderdomain.StatusCancelled, nil, now)
		if err == nil && changed {
			order.Status = orderdomain.StatusCancelled
		}
	default:
		return true
	}
	if err != nil {
		r.log.Error("order transition failed",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
		return false
	}
	if !changed {
		// The pending gate did not hold: the order already advanced or was
		// cancelled. Leave it untouched and send nothing.
		return true
	}

	if r.metrics != nil {
		r.metrics.OrderTransitions.WithLabelValues(string(order.Status)).Inc()
	}

	r.notify(ctx, event.Status, order)
	return true
}

func (r *Reactor) notify(ctx context.Context, status paymentdomain.Status, order *orderdomain.Order) {
	user, err := r.userRepo.Find(ctx, r.db, order.UserID)
	if err != nil || user == nil {
		r.log.Warn("order owner not found, skipping notification",
			zap.String("order_number", order.Number),
			zap.Error(err),
		)
		return
	}

	items, err := r.orderRepo.ListItems(ctx, r.db, order.ID)
	if err != nil {
		r.log.Warn("failed to load order items for notification", zap.Error(err))
		return
	}

	data := notificationData{User: user, Order: order, Items: items}

	var subject, body string
	var kind string
	if status == paymentdomain.StatusCompleted {
		subject, body, err = renderReceipt(data)
		kind = "receipt"
	} else {
		subject, body, err = renderFailure(data)
		kind = "payment_failed"
	}
	if err != nil {
		r.log.Error("failed to render notification", zap.Error(err))
		return
	}

	if err := r.email.Send(ctx, []string{user.Email}, subject, body); err != nil {
		r.log.Warn("failed to send notification email",
			zap.String("order_number", order.Number),
			zap.Error(err),
		)
		return
	}
	if r.metrics != nil {
		r.metrics.EmailsSent.WithLabelValues(kind).Inc()
	}
}
