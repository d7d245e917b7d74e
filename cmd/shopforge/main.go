package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/catalog"
	"github.com/shopforge/shopforge/internal/config"
	"github.com/shopforge/shopforge/internal/events"
	"github.com/shopforge/shopforge/internal/logger"
	"github.com/shopforge/shopforge/internal/metrics"
	"github.com/shopforge/shopforge/internal/migration"
	"github.com/shopforge/shopforge/internal/order"
	"github.com/shopforge/shopforge/internal/payment"
	"github.com/shopforge/shopforge/internal/providers/email"
	"github.com/shopforge/shopforge/internal/server"
	"github.com/shopforge/shopforge/internal/user"
	"github.com/shopforge/shopforge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		events.Module,
		metrics.Module,
		email.Module,

		// Functional domains
		catalog.Module,
		user.Module,
		order.Module,
		payment.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
