package order

import (
	"github.com/shopforge/shopforge/internal/events"
	"github.com/shopforge/shopforge/internal/order/reactor"
	"github.com/shopforge/shopforge/internal/order/repository"
	orderservice "github.com/shopforge/shopforge/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(orderservice.NewService),
	fx.Provide(reactor.New),
	fx.Invoke(func(r *reactor.Reactor, bus *events.Bus) {
		r.Register(bus)
	}),
)
