package payment_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travelmint/clients"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/booking_intent_models"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/models/user_models"
)

const (
	Currency = "INR"

	gatewayTimeout = 15 * time.Second
	// SyncAfter is how long an order may stay created before a status read
	// asks the gateway about it.
	SyncAfter = 15 * time.Minute
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountMismatch = errors.New("amount does not match the booking total")
	ErrUnverified     = errors.New("please verify your email before booking")
	ErrForbidden      = errors.New("not allowed to view this order")
)

type IntentReader interface {
	Get(ctx context.Context, id string, userID uuid.UUID) (*booking_intent_models.BookingIntent, error)
}

type OrderRecorder interface {
	RecordIntent(ctx context.Context, o *order_models.OrderIntent) error
	Lookup(ctx context.Context, orderID string) (*order_models.OrderIntent, error)
}

// OrderService creates gateway orders and keeps the ledger in step with them.
type OrderService struct {
	gateway      clients.PaymentGateway
	ledger       OrderRecorder
	intents      IntentReader
	materializer *Materializer
	now          func() time.Time
}

func NewOrderService(gateway clients.PaymentGateway, ledger OrderRecorder, intents IntentReader, materializer *Materializer) *OrderService {
	return &OrderService{
		gateway:      gateway,
		ledger:       ledger,
		intents:      intents,
		materializer: materializer,
		now:          time.Now,
	}
}

// CreateOrder asks the gateway for a hosted order and records the intent.
// Nothing is recorded when the gateway call fails.
func (s *OrderService) CreateOrder(ctx context.Context, user *user_models.User, amount int64, bookingIntentID string) (*clients.GatewayOrder, error) {
	if !user.IsVerified {
		return nil, ErrUnverified
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	record := &order_models.OrderIntent{
		UserID:          user.ID,
		BookingIntentID: bookingIntentID,
		Currency:        Currency,
	}
	if bookingIntentID != "" {
		intent, err := s.intents.Get(ctx, bookingIntentID, user.ID)
		if err != nil {
			return nil, err
		}
		if intent.TotalPrice != amount {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrAmountMismatch, intent.TotalPrice, amount)
		}
		record.PackageID = &intent.PackageID
		record.TravelDate = &intent.TravelDate
		record.Persons = intent.Persons
		record.TotalPrice = intent.TotalPrice
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	receipt := fmt.Sprintf("rcpt_%d", s.now().UnixMilli())
	order, err := s.gateway.CreateOrder(gctx, amount, Currency, receipt)
	if err != nil {
		logger.ErrorLogger.Errorf("Gateway order creation failed for user %s: %v", user.ID, err)
		return nil, err
	}

	record.RazorpayOrderID = order.ID
	record.Amount = order.Amount
	if record.Amount == 0 {
		record.Amount = amount
	}
	if err := s.ledger.RecordIntent(ctx, record); err != nil {
		return nil, fmt.Errorf("record order intent: %w", err)
	}
	return order, nil
}

// OrderStatus returns the ledger entry for its owner or an admin. An entry
// left in created for longer than SyncAfter is checked against the gateway
// first, and a captured payment found there goes through the materializer.
func (s *OrderService) OrderStatus(ctx context.Context, user *user_models.User, orderID string) (*order_models.OrderIntent, error) {
	intent, err := s.ledger.Lookup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if intent.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	if intent.Status != order_models.StatusCreated || s.now().Sub(intent.CreatedAt) < SyncAfter {
		return intent, nil
	}

	if synced, err := s.sync(ctx, intent); err != nil {
		logger.WarnLogger.Warnf("Gateway sync for order %s failed: %v", orderID, err)
	} else if synced {
		return s.ledger.Lookup(ctx, orderID)
	}
	return intent, nil
}

func (s *OrderService) sync(ctx context.Context, intent *order_models.OrderIntent) (bool, error) {
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	order, err := s.gateway.FetchOrder(gctx, intent.RazorpayOrderID)
	if err != nil {
		return false, err
	}
	if order.Status != "paid" {
		return false, nil
	}

	payment, err := s.gateway.CapturedPayment(gctx, intent.RazorpayOrderID)
	if err != nil {
		return false, err
	}

	outcome, err := s.materializer.HandleCaptured(ctx, PaymentEntity{
		ID:      payment.ID,
		OrderID: payment.OrderID,
		Amount:  payment.Amount,
		Method:  payment.Method,
		Status:  payment.Status,
	})
	if err != nil {
		return false, err
	}
	logger.InfoLogger.Infof("Order %s synced from gateway: %s", intent.RazorpayOrderID, outcome)
	return true, nil
}
