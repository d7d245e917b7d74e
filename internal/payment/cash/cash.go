package cash

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const transactionPrefix = "cash_"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Emitter domain.Emitter
}

// Strategy collects funds on delivery. There is no external processor: the
// transaction identifier is generated locally and confirmation is an admin
// action.
type Strategy struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	emitter domain.Emitter
}

func NewStrategy(p Params) *Strategy {
	return &Strategy{
		db:      p.DB,
		log:     p.Log.Named("payment.cash"),
		genID:   p.GenID,
		repo:    p.Repo,
		emitter: p.Emitter,
	}
}

func (s *Strategy) Method() string { return domain.MethodCash }

func (s *Strategy) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	transactionID := transactionPrefix + uuid.NewString()
	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:            s.genID.Generate(),
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		Method:        domain.MethodCash,
		Amount:        req.Amount,
		Currency:      strings.ToLower(strings.TrimSpace(req.Currency)),
		Status:        domain.StatusPending,
		TransactionID: &transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}
	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		return nil, err
	}
	return &domain.CreateResult{Payment: payment}, nil
}

func (s *Strategy) Confirm(ctx context.Context, transactionID string) (*domain.Payment, error) {
	payment, err := s.resolve(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateByTransactionID(ctx, s.db, transactionID, domain.StatusCompleted, nil, time.Now().UTC()); err != nil {
		return nil, err
	}
	payment.Status = domain.StatusCompleted

	s.emitter.EmitStatusChanged(ctx, transactionID, domain.StatusCompleted, nil)
	return payment, nil
}

func (s *Strategy) Cancel(ctx context.Context, transactionID string) (*domain.Payment, error) {
	payment, err := s.resolve(ctx, transactionID)
	if err != nil {
		return nil, domain.ErrCancelFailed
	}

	if _, err := s.repo.UpdateByTransactionID(ctx, s.db, transactionID, domain.StatusFailed, nil, time.Now().UTC()); err != nil {
		return nil, err
	}
	payment.Status = domain.StatusFailed
	return payment, nil
}

func (s *Strategy) resolve(ctx context.Context, transactionID string) (*domain.Payment, error) {
	if !strings.HasPrefix(transactionID, transactionPrefix) {
		return nil, domain.ErrTransactionNotFound
	}
	payment, err := s.repo.FindByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return payment, nil
}
