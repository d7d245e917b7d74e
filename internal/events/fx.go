package events

import (
	"context"

	"github.com/shopforge/shopforge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) *Bus {
	return NewBus(log, cfg.EventQueueSize)
}

func registerHooks(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			bus.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Stop(ctx)
		},
	})
}

// Module wires the in-process event bus.
var Module = fx.Module("events",
	fx.Provide(NewFromConfig),
	fx.Invoke(registerHooks),
)
