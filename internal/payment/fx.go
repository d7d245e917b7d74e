package payment

import (
	"context"

	"github.com/shopforge/shopforge/internal/payment/cash"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"github.com/shopforge/shopforge/internal/payment/outbox"
	"github.com/shopforge/shopforge/internal/payment/repository"
	paymentservice "github.com/shopforge/shopforge/internal/payment/service"
	"github.com/shopforge/shopforge/internal/payment/strategy"
	stripeadapter "github.com/shopforge/shopforge/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(outbox.New),
	fx.Provide(func(o *outbox.Outbox) domain.Emitter { return o }),
	fx.Provide(stripeadapter.NewClientFromConfig),
	fx.Provide(stripeadapter.NewStrategy),
	fx.Provide(cash.NewStrategy),
	fx.Provide(func(card *stripeadapter.Strategy, cod *cash.Strategy) *strategy.Registry {
		return strategy.NewRegistry(card, cod)
	}),
	fx.Provide(paymentservice.NewService),
	fx.Invoke(registerReplay),
)

// registerReplay republishes unhandled outbox rows once the app starts, after
// every subscriber has registered.
func registerReplay(lc fx.Lifecycle, o *outbox.Outbox) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return o.ReplayPending(ctx)
		},
	})
}
