package outbox

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/events"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Bus   *events.Bus
}

// Outbox persists normalized status changes before publishing them on the
// in-process bus, so a crash between emit and handling does not lose the
// transition. Unprocessed rows are replayed on startup.
type Outbox struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	bus   *events.Bus
}

func New(p Params) *Outbox {
	return &Outbox{
		db:    p.DB,
		log:   p.Log.Named("payment.outbox"),
		genID: p.GenID,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (o *Outbox) EmitStatusChanged(ctx context.Context, transactionID string, status domain.Status, payload []byte) {
	event := &domain.Event{
		ID:            o.genID.Generate(),
		TransactionID: transactionID,
		Status:        status,
		Payload:       datatypes.JSON(payload),
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.repo.InsertEvent(ctx, o.db, event); err != nil {
		// Delivery still happens in-memory; the row only backs replay.
		o.log.Warn("failed to persist payment event",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
	}

	o.bus.Publish(domain.TopicPaymentUpdated, domain.StatusChanged{
		EventID:       event.ID,
		TransactionID: transactionID,
		Status:        status,
	})
}

// ReplayPending republishes events that were persisted but never handled.
func (o *Outbox) ReplayPending(ctx context.Context) error {
	pending, err := o.repo.ListUnprocessedEvents(ctx, o.db, 500)
	if err != nil {
		return err
	}
	for _, event := range pending {
		o.bus.Publish(domain.TopicPaymentUpdated, domain.StatusChanged{
			EventID:       event.ID,
			TransactionID: event.TransactionID,
			Status:        event.Status,
		})
	}
	if len(pending) > 0 {
		o.log.Info("replayed pending payment events", zap.Int("count", len(pending)))
	}
	return nil
}
