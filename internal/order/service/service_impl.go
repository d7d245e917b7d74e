package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	catalogdomain "github.com/shopforge/shopforge/internal/catalog/domain"
	"github.com/shopforge/shopforge/internal/order/domain"
	pkgdb "github.com/shopforge/shopforge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
}

// Service creates orders at checkout, snapshotting SKU name, code and price
// into the line items.
type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
	}
}

type CheckoutLine struct {
	SKUID    snowflake.ID `json:"sku_id"`
	Quantity int64        `json:"quantity"`
}

func (s *Service) Checkout(ctx context.Context, userID snowflake.ID, lines []CheckoutLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            s.genID.Generate(),
		UserID:        userID,
		Number:        orderNumber(),
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Reservations and the order insert commit atomically: a failed line or
	// insert rolls back every stock decrement taken so far.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, line := range lines {
			if line.Quantity <= 0 {
				return domain.ErrEmptyOrder
			}
			sku, err := s.catalogRepo.FindSKU(ctx, tx, line.SKUID)
			if err != nil {
				return err
			}
			if sku == nil {
				return catalogdomain.ErrSKUNotFound
			}

			reserved, err := s.catalogRepo.DecrementStock(ctx, tx, sku.ID, line.Quantity, now)
			if err != nil {
				return err
			}
			if !reserved {
				return domain.ErrInsufficientStock
			}

			lineTotal := round2(sku.Price * float64(line.Quantity))
			order.Items = append(order.Items, domain.OrderItem{
				ID:        s.genID.Generate(),
				OrderID:   order.ID,
				SKUID:     sku.ID,
				Name:      sku.Name,
				Code:      sku.Code,
				Quantity:  line.Quantity,
				UnitPrice: sku.Price,
				LineTotal: lineTotal,
			})
			total += lineTotal
		}
		order.TotalAmount = round2(total)

		if err := s.repo.Insert(ctx, tx, order); err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			// order number collision, retry once with a fresh one
			order.Number = orderNumber()
			return s.repo.Insert(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			Name:      item.Name,
			Code:      item.Code,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return order, nil
}

func orderNumber() string {
	return "SF-" + strings.ToUpper(uuid.NewString()[:8])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
