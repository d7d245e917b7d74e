package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopforge/shopforge/internal/config"
	orderservice "github.com/shopforge/shopforge/internal/order/service"
	paymentservice "github.com/shopforge/shopforge/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Registry   *prometheus.Registry
	PaymentSvc *paymentservice.Service
	OrderSvc   *orderservice.Service
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	paymentSvc *paymentservice.Service
	orderSvc   *orderservice.Service
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		paymentSvc: p.PaymentSvc,
		orderSvc:   p.OrderSvc,
	}
}

func NewEngine(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func (s *Server) RegisterAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.POST("/checkout", s.HandleCheckout)
	api.GET("/orders/:id", s.HandleGetOrder)
	api.POST("/payments", s.HandleCreatePayment)
	api.POST("/payments/confirm", s.HandleConfirmPayment)
	api.POST("/payments/cancel", s.HandleCancelPayment)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Module wires the gin engine, route registration and the HTTP lifecycle.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, r *gin.Engine) {
		s.RegisterAPIRoutes(r)
	}),
	fx.Invoke(run),
)
