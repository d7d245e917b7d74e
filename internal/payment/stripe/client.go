package stripe

import (
	"context"

	"github.com/shopforge/shopforge/internal/config"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// ProcessorClient is the slice of the card-processor API the strategy uses.
// Kept narrow so tests can substitute a fake.
type ProcessorClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	// GetSession retrieves a checkout session with its payment intent expanded.
	GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (*stripe.Refund, error)
}

type apiClient struct {
	sc *client.API
}

// NewClientFromConfig builds the SDK-backed client. The secret key comes from
// process environment via Config.
func NewClientFromConfig(cfg config.Config) ProcessorClient {
	return &apiClient{sc: client.New(cfg.Stripe.SecretKey, nil)}
}

func (c *apiClient) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return c.sc.PaymentIntents.New(params)
}

func (c *apiClient) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return c.sc.PaymentIntents.Get(id, params)
}

func (c *apiClient) CancelIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	return c.sc.PaymentIntents.Cancel(id, params)
}

func (c *apiClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.sc.CheckoutSessions.New(params)
}

func (c *apiClient) GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	return c.sc.CheckoutSessions.Get(id, params)
}

func (c *apiClient) CreateRefund(ctx context.Context, paymentIntentID string) (*stripe.Refund, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx
	return c.sc.Refunds.New(params)
}
