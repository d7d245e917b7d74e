package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopforge/shopforge/internal/config"
	"github.com/shopforge/shopforge/internal/events"
	"github.com/shopforge/shopforge/internal/order/reactor"
	orderrepo "github.com/shopforge/shopforge/internal/order/repository"
	"github.com/shopforge/shopforge/internal/payment/cash"
	"github.com/shopforge/shopforge/internal/payment/domain"
	"github.com/shopforge/shopforge/internal/payment/outbox"
	paymentrepo "github.com/shopforge/shopforge/internal/payment/repository"
	paymentservice "github.com/shopforge/shopforge/internal/payment/service"
	"github.com/shopforge/shopforge/internal/payment/strategy"
	stripeadapter "github.com/shopforge/shopforge/internal/payment/stripe"
	userrepo "github.com/shopforge/shopforge/internal/user/repository"
	stripeapi "github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeClient struct {
	intents  map[string]*stripeapi.PaymentIntent
	sessions map[string]*stripeapi.CheckoutSession
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		intents:  map[string]*stripeapi.PaymentIntent{},
		sessions: map[string]*stripeapi.CheckoutSession{},
	}
}

func (f *fakeClient) CreateIntent(ctx context.Context, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	intent := &stripeapi.PaymentIntent{
		ID:           "pi_new",
		ClientSecret: "pi_new_secret",
		Status:       stripeapi.PaymentIntentStatusRequiresPaymentMethod,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeClient) GetIntent(ctx context.Context, id string) (*stripeapi.PaymentIntent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return intent, nil
}

func (f *fakeClient) CancelIntent(ctx context.Context, id string) (*stripeapi.PaymentIntent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	canceled := *intent
	canceled.Status = stripeapi.PaymentIntentStatusCanceled
	return &canceled, nil
}

func (f *fakeClient) CreateSession(ctx context.Context, params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) GetSession(ctx context.Context, id string) (*stripeapi.CheckoutSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout.session")
	}
	return session, nil
}

func (f *fakeClient) CreateRefund(ctx context.Context, paymentIntentID string) (*stripeapi.Refund, error) {
	return &stripeapi.Refund{ID: "re_1", Status: stripeapi.RefundStatusSucceeded}, nil
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type captureEmailProvider struct {
	sent []sentEmail
}

func (p *captureEmailProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	p.sent = append(p.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fixture struct {
	db     *gorm.DB
	bus    *events.Bus
	svc    *paymentservice.Service
	client *fakeClient
	emails *captureEmailProvider
	node   *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	log := zap.NewNop()
	bus := events.NewBus(log, 64)
	repo := paymentrepo.Provide()

	emitter := outbox.New(outbox.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  repo,
		Bus:   bus,
	})

	client := newFakeClient()
	card := stripeadapter.NewStrategy(stripeadapter.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    repo,
		Emitter: emitter,
		Client:  client,
		Cfg:     config.Config{BaseURL: "https://shop.example.com"},
	})
	cod := cash.NewStrategy(cash.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    repo,
		Emitter: emitter,
	})

	svc := paymentservice.NewService(paymentservice.Params{
		Log:      log,
		Registry: strategy.NewRegistry(card, cod),
	})

	emails := &captureEmailProvider{}
	r := reactor.New(reactor.Params{
		DB:          db,
		Log:         log,
		PaymentRepo: repo,
		OrderRepo:   orderrepo.Provide(),
		UserRepo:    userrepo.Provide(),
		Email:       emails,
	})
	r.Register(bus)
	bus.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})

	return &fixture{db: db, bus: bus, svc: svc, client: client, emails: emails, node: node}
}

func (f *fixture) seedUserAndOrder(t *testing.T, total float64) (snowflake.ID, snowflake.ID) {
	t.Helper()

	now := time.Now().UTC()
	userID := f.node.Generate()
	err := f.db.Exec(
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID, "casey@example.com", "Casey", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	orderID := f.node.Generate()
	err = f.db.Exec(
		`INSERT INTO orders (id, user_id, number, status, payment_status, total_amount, created_at, updated_at)
		 VALUES (?, ?, ?, 'pending', 'pending', ?, ?, ?)`,
		orderID, userID, "SF-"+orderID.String(), total, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	err = f.db.Exec(
		`INSERT INTO order_items (id, order_id, sku_id, name, code, quantity, unit_price, line_total)
		 VALUES (?, ?, ?, 'Ceramic Mug', 'SKU-MUG-01', 1, ?, ?)`,
		f.node.Generate(), orderID, f.node.Generate(), total, total,
	).Error
	if err != nil {
		t.Fatalf("seed order item: %v", err)
	}
	return userID, orderID
}

func TestCreateUnknownMethod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, orderID := f.seedUserAndOrder(t, 49.99)

	_, err := f.svc.Create(ctx, domain.CreateRequest{
		OrderID:  orderID,
		UserID:   userID,
		Method:   "paypal",
		Amount:   49.99,
		Currency: "usd",
	})
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}

	// method lookup never normalizes case
	_, err = f.svc.Create(ctx, domain.CreateRequest{
		OrderID:  orderID,
		UserID:   userID,
		Method:   "Stripe",
		Amount:   49.99,
		Currency: "usd",
	})
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider for case mismatch, got %v", err)
	}
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, domain.CreateRequest{Method: domain.MethodStripe, Amount: 49.99})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest without order id, got %v", err)
	}

	_, err = f.svc.Create(ctx, domain.CreateRequest{OrderID: 1, UserID: 1, Method: domain.MethodStripe, Amount: 0})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for zero amount, got %v", err)
	}
}

func TestConfirmDrivesOrderAndReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, orderID := f.seedUserAndOrder(t, 49.99)

	result, err := f.svc.Create(ctx, domain.CreateRequest{
		OrderID:  orderID,
		UserID:   userID,
		Method:   domain.MethodStripe,
		Amount:   49.99,
		Currency: "usd",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.ClientSecret == "" {
		t.Fatalf("expected client secret")
	}
	transactionID := *result.Payment.TransactionID

	// the customer completes the charge at the provider
	f.client.intents[transactionID].Status = stripeapi.PaymentIntentStatusSucceeded

	payment, err := f.svc.Confirm(ctx, transactionID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.Status != domain.StatusCompleted {
		t.Fatalf("expected completed payment, got %s", payment.Status)
	}

	f.bus.Wait()

	var row struct {
		Status        string
		PaymentStatus string
	}
	if err := f.db.Raw("SELECT status, payment_status FROM orders WHERE id = ?", orderID).Scan(&row).Error; err != nil {
		t.Fatalf("scan order: %v", err)
	}
	if row.Status != "processing" {
		t.Fatalf("expected order processing, got %s", row.Status)
	}
	if row.PaymentStatus != "completed" {
		t.Fatalf("expected order payment_status completed, got %s", row.PaymentStatus)
	}

	if len(f.emails.sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(f.emails.sent))
	}
	mail := f.emails.sent[0]
	if mail.subject != "Payment Successful" {
		t.Fatalf("expected receipt subject, got %s", mail.subject)
	}
	if !strings.Contains(mail.body, "49.99") {
		t.Fatalf("expected order total in receipt")
	}

	assertCount(t, f.db, "SELECT COUNT(1) FROM payment_events", 1)
	assertCount(t, f.db, "SELECT COUNT(1) FROM payment_events WHERE processed_at IS NOT NULL", 1)
}

func TestConfirmResolvesAcrossBackends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, orderID := f.seedUserAndOrder(t, 15.50)

	result, err := f.svc.Create(ctx, domain.CreateRequest{
		OrderID: orderID,
		UserID:  userID,
		Method:  domain.MethodCash,
		Amount:  15.50,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// the identifier is not a provider object, so resolution falls
	// through the card backend to the cash backend
	payment, err := f.svc.Confirm(ctx, *result.Payment.TransactionID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", payment.Status)
	}
}

func TestConfirmUnknownTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Confirm(ctx, "tx_unknown"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if _, err := f.svc.Confirm(ctx, "  "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank id, got %v", err)
	}
}

func TestCancelSucceededChargeRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID, orderID := f.seedUserAndOrder(t, 49.99)

	result, err := f.svc.Create(ctx, domain.CreateRequest{
		OrderID:  orderID,
		UserID:   userID,
		Method:   domain.MethodStripe,
		Amount:   49.99,
		Currency: "usd",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	transactionID := *result.Payment.TransactionID
	f.client.intents[transactionID].Status = stripeapi.PaymentIntentStatusSucceeded

	payment, err := f.svc.Cancel(ctx, transactionID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if payment.Status != domain.StatusRefunded {
		t.Fatalf("expected refunded, got %s", payment.Status)
	}
}

func TestCancelUnresolvableTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Cancel(ctx, "tx_unknown"); !errors.Is(err, domain.ErrCancelFailed) {
		t.Fatalf("expected ErrCancelFailed, got %v", err)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			number TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			total_amount NUMERIC(12,2) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE order_items (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			sku_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			code TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL,
			line_total NUMERIC(12,2) NOT NULL
		)`,
		`CREATE TABLE skus (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			code TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL,
			stock BIGINT NOT NULL,
			image_url TEXT
		)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			method TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			transaction_id TEXT,
			provider_response TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE payment_events (
			id BIGINT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			status TEXT NOT NULL,
			payload TEXT,
			created_at DATETIME NOT NULL,
			processed_at DATETIME
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}
	return db
}

func assertCount(t *testing.T, db *gorm.DB, query string, expected int64) {
	t.Helper()

	var count int64
	if err := db.Raw(query).Scan(&count).Error; err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != expected {
		t.Fatalf("expected %d, got %d", expected, count)
	}
}
