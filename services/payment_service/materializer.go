package payment_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travelmint/events"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/booking_models"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils/mail"
	"github.com/sirupsen/logrus"
)

// Outcome describes what a webhook event did. Every outcome is acknowledged
// to the gateway; only a returned error is.
type Outcome string

const (
	OutcomeMaterialized Outcome = "materialized"
	OutcomeReplayed     Outcome = "replayed"
	OutcomeUnknownOrder Outcome = "unknown_order"
	OutcomePaymentOnly  Outcome = "payment_only"
	OutcomeFailed       Outcome = "failed"
	OutcomeIgnored      Outcome = "ignored"
)

const notifyTimeout = 20 * time.Second

// PaymentEntity is the payment object carried by gateway events.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
	Status  string `json:"status"`
}

type Ledger interface {
	Lookup(ctx context.Context, orderID string) (*order_models.OrderIntent, error)
	MarkPaid(ctx context.Context, orderID, paymentID string) (*order_models.OrderIntent, bool, error)
	MarkFailed(ctx context.Context, orderID string) (*order_models.OrderIntent, bool, error)
	ClaimNotification(ctx context.Context, orderID string) (bool, error)
	ReleaseNotification(ctx context.Context, orderID string) error
}

type BookingStore interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*booking_models.Booking, error)
	CreateOnce(ctx context.Context, b *booking_models.Booking) (bool, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user_models.User, error)
}

type PackageLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*package_models.TravelPackage, error)
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, to string, b mail.BookingConfirmation) error
	PaymentReceived(ctx context.Context, to string, p mail.PaymentReceipt) error
}

// Materializer turns verified gateway events into ledger transitions and
// bookings. Redelivered events are safe: the ledger only moves forward and
// bookings are unique per payment id.
type Materializer struct {
	ledger    Ledger
	bookings  BookingStore
	users     UserLookup
	packages  PackageLookup
	notifier  Notifier
	publisher events.Publisher
}

func NewMaterializer(ledger Ledger, bookings BookingStore, users UserLookup, packages PackageLookup, notifier Notifier, publisher events.Publisher) *Materializer {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Materializer{
		ledger:    ledger,
		bookings:  bookings,
		users:     users,
		packages:  packages,
		notifier:  notifier,
		publisher: publisher,
	}
}

// HandleCaptured records a captured payment and creates its booking once.
func (m *Materializer) HandleCaptured(ctx context.Context, p PaymentEntity) (Outcome, error) {
	entry := logger.InfoLogger.WithFields(logrus.Fields{"order_id": p.OrderID, "payment_id": p.ID})

	if p.OrderID == "" || p.ID == "" {
		logger.WarnLogger.Warnf("Captured event without order or payment id (order=%q payment=%q)", p.OrderID, p.ID)
		return OutcomeIgnored, nil
	}

	intent, err := m.ledger.Lookup(ctx, p.OrderID)
	if errors.Is(err, order_models.ErrOrderNotFound) {
		logger.WarnLogger.Warnf("Payment %s captured for unknown order %s; no booking created", p.ID, p.OrderID)
		return OutcomeUnknownOrder, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup order: %w", err)
	}
	// The ledger amount is authoritative; a differing capture is flagged for review, not refused.
	if p.Amount != 0 && p.Amount != intent.Amount {
		logger.ErrorLogger.Errorf("Payment %s amount %d differs from order %s amount %d", p.ID, p.Amount, p.OrderID, intent.Amount)
	}

	intent, changed, err := m.ledger.MarkPaid(ctx, p.OrderID, p.ID)
	if err != nil {
		return "", fmt.Errorf("mark order paid: %w", err)
	}
	switch {
	case intent.Status == order_models.StatusFailed:
		logger.ErrorLogger.Errorf("Payment %s captured for order %s already marked failed; needs manual refund or review", p.ID, p.OrderID)
		return OutcomeIgnored, nil
	case !changed && intent.PaymentID != "" && intent.PaymentID != p.ID:
		logger.ErrorLogger.Errorf("Order %s already paid by %s; second capture %s needs manual refund", p.OrderID, intent.PaymentID, p.ID)
		return OutcomeIgnored, nil
	}

	outcome, booking, err := m.materialize(ctx, intent, p)
	if err != nil {
		return "", err
	}
	entry.Infof("Captured payment processed: %s", outcome)

	m.notify(ctx, intent, booking, p)

	if outcome == OutcomeMaterialized {
		m.publish(ctx, events.TypeBookingConfirmed, booking)
	}
	return outcome, nil
}

func (m *Materializer) materialize(ctx context.Context, intent *order_models.OrderIntent, p PaymentEntity) (Outcome, *booking_models.Booking, error) {
	existing, err := m.bookings.GetByPaymentID(ctx, p.ID)
	if err == nil {
		return OutcomeReplayed, existing, nil
	}
	if !errors.Is(err, booking_models.ErrBookingNotFound) {
		return "", nil, fmt.Errorf("check existing booking: %w", err)
	}

	if !intent.HasBookingSnapshot() {
		logger.WarnLogger.Warnf("Order %s has no booking details; payment %s recorded without a booking", intent.RazorpayOrderID, p.ID)
		return OutcomePaymentOnly, nil, nil
	}

	booking, err := booking_models.NewBooking(*intent.PackageID, intent.UserID, intent.RazorpayOrderID, p.ID,
		*intent.TravelDate, intent.Persons, intent.TotalPrice)
	if err != nil {
		return "", nil, err
	}
	created, err := m.bookings.CreateOnce(ctx, booking)
	if err != nil {
		return "", nil, fmt.Errorf("create booking: %w", err)
	}
	if created {
		return OutcomeMaterialized, booking, nil
	}

	// A concurrent delivery inserted it first.
	existing, err = m.bookings.GetByPaymentID(ctx, p.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load concurrent booking: %w", err)
	}
	return OutcomeReplayed, existing, nil
}

// notify sends at most one confirmation per order. Failures are logged and
// release the claim so a redelivery can try again; they never fail the event.
func (m *Materializer) notify(ctx context.Context, intent *order_models.OrderIntent, booking *booking_models.Booking, p PaymentEntity) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	claimed, err := m.ledger.ClaimNotification(ctx, intent.RazorpayOrderID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to claim notification for order %s: %v", intent.RazorpayOrderID, err)
		return
	}
	if !claimed {
		logger.InfoLogger.Infof("Confirmation for order %s already sent", intent.RazorpayOrderID)
		return
	}

	if err := m.sendConfirmation(ctx, intent, booking, p); err != nil {
		logger.ErrorLogger.Errorf("Failed to send confirmation for order %s: %v", intent.RazorpayOrderID, err)
		if err := m.ledger.ReleaseNotification(ctx, intent.RazorpayOrderID); err != nil {
			logger.ErrorLogger.Errorf("Failed to release notification claim for order %s: %v", intent.RazorpayOrderID, err)
		}
	}
}

func (m *Materializer) sendConfirmation(ctx context.Context, intent *order_models.OrderIntent, booking *booking_models.Booking, p PaymentEntity) error {
	user, err := m.users.GetUserByID(ctx, intent.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if booking == nil {
		return m.notifier.PaymentReceived(ctx, user.Email, mail.PaymentReceipt{
			Name:      user.DisplayName(),
			OrderID:   intent.RazorpayOrderID,
			PaymentID: p.ID,
			Amount:    intent.Amount,
			Method:    p.Method,
			Status:    order_models.StatusPaid,
		})
	}

	packageName := "your package"
	if pkg, err := m.packages.GetByID(ctx, booking.PackageID); err == nil {
		packageName = pkg.Name
	} else {
		logger.WarnLogger.Warnf("Package %s for booking %s not loaded: %v", booking.PackageID, booking.ID, err)
	}

	return m.notifier.BookingConfirmed(ctx, user.Email, mail.BookingConfirmation{
		Name:        user.DisplayName(),
		PackageName: packageName,
		TravelDate:  booking.TravelDate,
		Persons:     booking.Persons,
		TotalPrice:  booking.TotalPrice,
		BookingID:   booking.ID.String(),
		OrderID:     intent.RazorpayOrderID,
		PaymentID:   p.ID,
		Amount:      intent.Amount,
		Method:      p.Method,
	})
}

func (m *Materializer) publish(ctx context.Context, eventType string, b *booking_models.Booking) {
	err := m.publisher.PublishBooking(ctx, BookingEventFrom(eventType, b))
	if err != nil {
		logger.WarnLogger.Warnf("Booking %s event %s not published: %v", b.ID, eventType, err)
	}
}

// BookingEventFrom builds the event payload for a booking.
func BookingEventFrom(eventType string, b *booking_models.Booking) events.BookingEvent {
	return events.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID.String(),
		UserID:     b.UserID.String(),
		PackageID:  b.PackageID.String(),
		OrderID:    b.OrderID,
		PaymentID:  b.PaymentID,
		TravelDate: b.TravelDate.Format(time.DateOnly),
		Persons:    b.Persons,
		TotalPrice: b.TotalPrice,
	}
}

// HandleFailed records a failed payment. No booking is ever created for it.
func (m *Materializer) HandleFailed(ctx context.Context, p PaymentEntity) (Outcome, error) {
	if p.OrderID == "" {
		logger.WarnLogger.Warnf("Failed-payment event without order id (payment=%q)", p.ID)
		return OutcomeIgnored, nil
	}

	intent, changed, err := m.ledger.MarkFailed(ctx, p.OrderID)
	if errors.Is(err, order_models.ErrOrderNotFound) {
		logger.WarnLogger.Warnf("Payment %s failed for unknown order %s", p.ID, p.OrderID)
		return OutcomeUnknownOrder, nil
	}
	if err != nil {
		return "", fmt.Errorf("mark order failed: %w", err)
	}
	if !changed {
		logger.InfoLogger.Infof("Order %s already %s; failed event for payment %s ignored", p.OrderID, intent.Status, p.ID)
		return OutcomeReplayed, nil
	}
	logger.InfoLogger.Infof("Order %s marked failed (payment %s)", p.OrderID, p.ID)
	return OutcomeFailed, nil
}
