package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopforge/shopforge/internal/metrics"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"github.com/shopforge/shopforge/internal/payment/strategy"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Registry *strategy.Registry
	Metrics  *metrics.Metrics `optional:"true"`
}

// Service routes create/confirm/cancel calls to the backend matching the
// payment method, or resolves the backend sequentially by transaction
// identifier.
type Service struct {
	log      *zap.Logger
	registry *strategy.Registry
	metrics  *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:      p.Log.Named("payment.service"),
		registry: p.Registry,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if req.OrderID == 0 || req.UserID == 0 || req.Amount <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	backend, ok := s.registry.ForMethod(req.Method)
	if !ok {
		return nil, domain.ErrNoProvider
	}

	result, err := backend.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentsCreated.WithLabelValues(req.Method).Inc()
	}
	return result, nil
}

// Confirm tries each registered backend in order until one recognizes the
// transaction identifier.
func (s *Service) Confirm(ctx context.Context, transactionID string) (*domain.Payment, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, domain.ErrInvalidRequest
	}

	for _, backend := range s.registry.All() {
		payment, err := backend.Confirm(ctx, transactionID)
		if errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrTransactionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.PaymentEvents.WithLabelValues(string(payment.Status)).Inc()
		}
		return payment, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// Cancel mirrors Confirm's sequential resolution.
func (s *Service) Cancel(ctx context.Context, transactionID string) (*domain.Payment, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, domain.ErrInvalidRequest
	}

	for _, backend := range s.registry.All() {
		payment, err := backend.Cancel(ctx, transactionID)
		if errors.Is(err, domain.ErrCancelFailed) || errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrTransactionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return payment, nil
	}
	return nil, domain.ErrCancelFailed
}
