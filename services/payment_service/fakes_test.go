package payment_service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travelmint/clients"
	"github.com/joy095/travelmint/events"
	"github.com/joy095/travelmint/models/booking_intent_models"
	"github.com/joy095/travelmint/models/booking_models"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils/mail"
	"github.com/stretchr/testify/mock"
)

// memLedger mirrors the conditional updates of order_models.Ledger.
type memLedger struct {
	mu     sync.Mutex
	orders map[string]*order_models.OrderIntent
}

func newMemLedger() *memLedger {
	return &memLedger{orders: map[string]*order_models.OrderIntent{}}
}

func (l *memLedger) RecordIntent(_ context.Context, o *order_models.OrderIntent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.orders[o.RazorpayOrderID]; ok {
		return order_models.ErrDuplicateOrder
	}
	o.ID = uuid.New()
	o.Status = order_models.StatusCreated
	o.CreatedAt = time.Now()
	cp := *o
	l.orders[o.RazorpayOrderID] = &cp
	return nil
}

func (l *memLedger) Lookup(_ context.Context, orderID string) (*order_models.OrderIntent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return nil, order_models.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (l *memLedger) transition(orderID, to, paymentID string) (*order_models.OrderIntent, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return nil, false, order_models.ErrOrderNotFound
	}
	changed := false
	if o.Status == order_models.StatusCreated {
		o.Status = to
		if paymentID != "" {
			o.PaymentID = paymentID
		}
		changed = true
	}
	cp := *o
	return &cp, changed, nil
}

func (l *memLedger) MarkPaid(_ context.Context, orderID, paymentID string) (*order_models.OrderIntent, bool, error) {
	return l.transition(orderID, order_models.StatusPaid, paymentID)
}

func (l *memLedger) MarkFailed(_ context.Context, orderID string) (*order_models.OrderIntent, bool, error) {
	return l.transition(orderID, order_models.StatusFailed, "")
}

func (l *memLedger) ClaimNotification(_ context.Context, orderID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.orders[orderID]
	if o.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	o.NotifiedAt = &now
	return true, nil
}

func (l *memLedger) ReleaseNotification(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[orderID].NotifiedAt = nil
	return nil
}

func (l *memLedger) status(orderID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orders[orderID].Status
}

type memBookings struct {
	mu        sync.Mutex
	byPayment map[string]*booking_models.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{byPayment: map[string]*booking_models.Booking{}}
}

func (b *memBookings) GetByPaymentID(_ context.Context, paymentID string) (*booking_models.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bk, ok := b.byPayment[paymentID]; ok {
		return bk, nil
	}
	return nil, booking_models.ErrBookingNotFound
}

func (b *memBookings) CreateOnce(_ context.Context, bk *booking_models.Booking) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byPayment[bk.PaymentID]; ok {
		return false, nil
	}
	b.byPayment[bk.PaymentID] = bk
	return true, nil
}

func (b *memBookings) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byPayment)
}

type memUsers map[uuid.UUID]*user_models.User

func (u memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*user_models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, user_models.ErrUserNotFound
}

type memPackages map[uuid.UUID]*package_models.TravelPackage

func (p memPackages) GetByID(_ context.Context, id uuid.UUID) (*package_models.TravelPackage, error) {
	if pkg, ok := p[id]; ok {
		return pkg, nil
	}
	return nil, package_models.ErrPackageNotFound
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, to string, b mail.BookingConfirmation) error {
	return m.Called(ctx, to, b).Error(0)
}

func (m *mockNotifier) PaymentReceived(ctx context.Context, to string, p mail.PaymentReceipt) error {
	return m.Called(ctx, to, p).Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (p *recordingPublisher) PublishBooking(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type mockGateway struct {
	mock.Mock
}

func (g *mockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*clients.GatewayOrder, error) {
	args := g.Called(ctx, amount, currency, receipt)
	order, _ := args.Get(0).(*clients.GatewayOrder)
	return order, args.Error(1)
}

func (g *mockGateway) FetchOrder(ctx context.Context, orderID string) (*clients.GatewayOrder, error) {
	args := g.Called(ctx, orderID)
	order, _ := args.Get(0).(*clients.GatewayOrder)
	return order, args.Error(1)
}

func (g *mockGateway) CapturedPayment(ctx context.Context, orderID string) (*clients.GatewayPayment, error) {
	args := g.Called(ctx, orderID)
	payment, _ := args.Get(0).(*clients.GatewayPayment)
	return payment, args.Error(1)
}

type memIntents map[string]*booking_intent_models.BookingIntent

func (m memIntents) Get(_ context.Context, id string, userID uuid.UUID) (*booking_intent_models.BookingIntent, error) {
	intent, ok := m[id]
	if !ok || intent.UserID != userID {
		return nil, booking_intent_models.ErrIntentNotFound
	}
	return intent, nil
}

// fixture wires a materializer over in-memory stores with one verified user
// and one package.
type fixture struct {
	ledger    *memLedger
	bookings  *memBookings
	notifier  *mockNotifier
	publisher *recordingPublisher
	user      *user_models.User
	pkg       *package_models.TravelPackage
	m         *Materializer
}

func newFixture() *fixture {
	f := &fixture{
		ledger:    newMemLedger(),
		bookings:  newMemBookings(),
		notifier:  new(mockNotifier),
		publisher: &recordingPublisher{},
		user:      &user_models.User{ID: uuid.New(), Username: "asha", Email: "asha@example.com", IsVerified: true},
		pkg:       &package_models.TravelPackage{ID: uuid.New(), Name: "Goa Getaway", Price: 75000},
	}
	f.m = NewMaterializer(f.ledger, f.bookings,
		memUsers{f.user.ID: f.user}, memPackages{f.pkg.ID: f.pkg}, f.notifier, f.publisher)
	return f
}

// seedOrder records a created intent carrying a booking snapshot.
func (f *fixture) seedOrder(orderID string, amount int64) {
	date := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	_ = f.ledger.RecordIntent(context.Background(), &order_models.OrderIntent{
		RazorpayOrderID: orderID,
		UserID:          f.user.ID,
		Amount:          amount,
		PackageID:       &f.pkg.ID,
		TravelDate:      &date,
		Persons:         2,
		TotalPrice:      amount,
	})
}
