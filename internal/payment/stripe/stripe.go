package stripe

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/config"
	"github.com/shopforge/shopforge/internal/payment/domain"
	stripe "github.com/stripe/stripe-go/v79"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Emitter domain.Emitter
	Client  ProcessorClient
	Cfg     config.Config
}

// Strategy integrates with the card-processor API and normalizes its states
// into the domain's status set.
type Strategy struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	emitter domain.Emitter
	client  ProcessorClient
	baseURL string
}

func NewStrategy(p Params) *Strategy {
	return &Strategy{
		db:      p.DB,
		log:     p.Log.Named("payment.stripe"),
		genID:   p.GenID,
		repo:    p.Repo,
		emitter: p.Emitter,
		client:  p.Client,
		baseURL: p.Cfg.BaseURL,
	}
}

func (s *Strategy) Method() string { return domain.MethodStripe }

func (s *Strategy) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if req.RedirectToCheckout {
		return s.createCheckoutSession(ctx, req)
	}
	return s.createPaymentIntent(ctx, req)
}

func (s *Strategy) createPaymentIntent(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	currency := normalizeCurrency(req.Currency)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(req.Amount)),
		Currency: stripe.String(currency),
	}

	intent, err := s.client.CreateIntent(ctx, params)
	if err != nil {
		return nil, err
	}

	payment, err := s.persistPayment(ctx, req, intent.ID, intent)
	if err != nil {
		return nil, err
	}

	return &domain.CreateResult{
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *Strategy) createCheckoutSession(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	currency := normalizeCurrency(req.Currency)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = []*string{stripe.String(item.ImageURL)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(item.UnitPrice)),
				ProductData: productData,
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}&method=" + domain.MethodStripe),
		CancelURL:  stripe.String(s.baseURL + "/checkout/cancel?session_id={CHECKOUT_SESSION_ID}&method=" + domain.MethodStripe),
	}

	session, err := s.client.CreateSession(ctx, params)
	if err != nil {
		return nil, err
	}

	payment, err := s.persistPayment(ctx, req, session.ID, session)
	if err != nil {
		return nil, err
	}

	return &domain.CreateResult{
		Payment:     payment,
		CheckoutURL: session.URL,
	}, nil
}

func (s *Strategy) persistPayment(ctx context.Context, req domain.CreateRequest, transactionID string, providerObject any) (*domain.Payment, error) {
	raw, err := json.Marshal(providerObject)
	if err != nil {
		raw = nil
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:               s.genID.Generate(),
		OrderID:          req.OrderID,
		UserID:           req.UserID,
		Method:           domain.MethodStripe,
		Amount:           req.Amount,
		Currency:         normalizeCurrency(req.Currency),
		Status:           domain.StatusPending,
		TransactionID:    &transactionID,
		ProviderResponse: datatypes.JSON(raw),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Confirm retrieves the transaction first as a payment intent, falling back
// to a checkout session with its nested intent expanded. The provider state
// is normalized and all matching local rows updated before the status change
// is emitted. A provider object with no local payment row emits nothing so
// resolution can fall through to the next backend. Emission is not awaited.
func (s *Strategy) Confirm(ctx context.Context, transactionID string) (*domain.Payment, error) {
	state, snapshot, err := s.lookupState(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	status := NormalizeProviderState(state)
	if _, err := s.repo.UpdateByTransactionID(ctx, s.db, transactionID, status, snapshot, time.Now().UTC()); err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		s.log.Warn("provider transaction confirmed without local payment row",
			zap.String("transaction_id", transactionID),
		)
		return nil, domain.ErrTransactionNotFound
	}

	s.emitter.EmitStatusChanged(ctx, transactionID, status, snapshot)
	return payment, nil
}

func (s *Strategy) lookupState(ctx context.Context, transactionID string) (string, []byte, error) {
	if intent, err := s.client.GetIntent(ctx, transactionID); err == nil {
		raw, _ := json.Marshal(intent)
		return string(intent.Status), raw, nil
	}

	session, err := s.client.GetSession(ctx, transactionID)
	if err != nil {
		return "", nil, domain.ErrObjectNotFound
	}
	raw, _ := json.Marshal(session)
	if session.PaymentIntent != nil && session.PaymentIntent.Status != "" {
		return string(session.PaymentIntent.Status), raw, nil
	}
	return string(session.Status), raw, nil
}

// Cancel resolves the intent (directly, then via checkout session), cancels
// it when it has not yet succeeded, and refunds it when it has.
func (s *Strategy) Cancel(ctx context.Context, transactionID string) (*domain.Payment, error) {
	intent, err := s.client.GetIntent(ctx, transactionID)
	if err != nil {
		session, serr := s.client.GetSession(ctx, transactionID)
		if serr != nil || session.PaymentIntent == nil {
			return nil, domain.ErrCancelFailed
		}
		intent = session.PaymentIntent
	}

	var status domain.Status
	var snapshot []byte
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		refund, err := s.client.CreateRefund(ctx, intent.ID)
		if err != nil {
			return nil, domain.ErrCancelFailed
		}
		status = domain.StatusRefunded
		snapshot, _ = json.Marshal(refund)
	case stripe.PaymentIntentStatusCanceled:
		status = domain.StatusFailed
		snapshot, _ = json.Marshal(intent)
	default:
		canceled, err := s.client.CancelIntent(ctx, intent.ID)
		if err != nil {
			return nil, domain.ErrCancelFailed
		}
		status = domain.StatusFailed
		snapshot, _ = json.Marshal(canceled)
	}

	if _, err := s.repo.UpdateByTransactionID(ctx, s.db, transactionID, status, snapshot, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.FindByTransactionID(ctx, s.db, transactionID)
}

// NormalizeProviderState maps a provider state onto the domain status:
// succeeded and complete are terminal success, requires_payment_method and
// canceled are terminal failure, anything else stays pending.
func NormalizeProviderState(state string) domain.Status {
	switch state {
	case "succeeded", "complete":
		return domain.StatusCompleted
	case "requires_payment_method", "canceled":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return currency
}
