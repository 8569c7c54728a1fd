package order_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
)

const (
	StatusCreated = "created"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

var (
	ErrDuplicateOrder = errors.New("order already recorded")
	ErrOrderNotFound  = errors.New("order not found")
)

// OrderIntent is a requested payment waiting for the gateway to confirm it.
// The booking fields are a snapshot of the booking intent at order time.
type OrderIntent struct {
	ID              uuid.UUID  `json:"id"`
	RazorpayOrderID string     `json:"razorpayOrderId"`
	UserID          uuid.UUID  `json:"userId"`
	BookingIntentID string     `json:"bookingIntentId,omitempty"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	PaymentID       string     `json:"paymentId,omitempty"`
	PackageID       *uuid.UUID `json:"packageId,omitempty"`
	TravelDate      *time.Time `json:"travelDate,omitempty"`
	Persons         int        `json:"persons,omitempty"`
	TotalPrice      int64      `json:"totalPrice,omitempty"`
	NotifiedAt      *time.Time `json:"notifiedAt,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// HasBookingSnapshot reports whether a booking can be built from the intent.
func (o *OrderIntent) HasBookingSnapshot() bool {
	return o.PackageID != nil && o.TravelDate != nil && o.Persons > 0
}

func (o *OrderIntent) IsTerminal() bool {
	return o.Status == StatusPaid || o.Status == StatusFailed
}

// Ledger persists order intents keyed by the gateway order id.
type Ledger struct {
	DB shared_models.DBTX
}

func NewLedger(db shared_models.DBTX) *Ledger {
	return &Ledger{DB: db}
}

const intentColumns = `id, razorpay_order_id, user_id, COALESCE(booking_intent_id, ''), amount, currency, status,
	COALESCE(payment_id, ''), package_id, travel_date, COALESCE(persons, 0), COALESCE(total_price, 0),
	notified_at, paid_at, created_at, updated_at`

func scanIntent(row pgx.Row) (*OrderIntent, error) {
	o := &OrderIntent{}
	err := row.Scan(&o.ID, &o.RazorpayOrderID, &o.UserID, &o.BookingIntentID, &o.Amount, &o.Currency, &o.Status,
		&o.PaymentID, &o.PackageID, &o.TravelDate, &o.Persons, &o.TotalPrice,
		&o.NotifiedAt, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// RecordIntent stores a new intent in status created.
func (l *Ledger) RecordIntent(ctx context.Context, o *OrderIntent) error {
	if o.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate order intent id: %w", err)
		}
		o.ID = id
	}
	if o.Currency == "" {
		o.Currency = "INR"
	}
	o.Status = StatusCreated

	var bookingIntentID, persons, totalPrice any
	if o.BookingIntentID != "" {
		bookingIntentID = o.BookingIntentID
	}
	if o.Persons > 0 {
		persons = o.Persons
		totalPrice = o.TotalPrice
	}

	err := l.DB.QueryRow(ctx, `
		INSERT INTO order_intents (id, razorpay_order_id, user_id, booking_intent_id, amount, currency, status,
			package_id, travel_date, persons, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		o.ID, o.RazorpayOrderID, o.UserID, bookingIntentID, o.Amount, o.Currency, o.Status,
		o.PackageID, o.TravelDate, persons, totalPrice,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if shared_models.IsUniqueViolation(err) {
			logger.WarnLogger.Warnf("Order %s already recorded", o.RazorpayOrderID)
			return ErrDuplicateOrder
		}
		logger.ErrorLogger.Errorf("Failed to record order intent %s: %v", o.RazorpayOrderID, err)
		return fmt.Errorf("failed to record order intent: %w", err)
	}

	logger.InfoLogger.Infof("Order intent %s recorded for user %s (amount %d)", o.RazorpayOrderID, o.UserID, o.Amount)
	return nil
}

// Lookup returns the intent for a gateway order id.
func (l *Ledger) Lookup(ctx context.Context, orderID string) (*OrderIntent, error) {
	o, err := scanIntent(l.DB.QueryRow(ctx, `SELECT `+intentColumns+` FROM order_intents WHERE razorpay_order_id = $1`, orderID))
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to look up order %s: %w", orderID, err)
	}
	return o, err
}

// MarkPaid moves a created intent to paid. changed is false when the intent
// was already terminal; the returned entry always reflects the stored state.
func (l *Ledger) MarkPaid(ctx context.Context, orderID, paymentID string) (*OrderIntent, bool, error) {
	o, err := scanIntent(l.DB.QueryRow(ctx, `
		UPDATE order_intents
		SET status = $2, payment_id = $3, paid_at = NOW(), updated_at = NOW()
		WHERE razorpay_order_id = $1 AND status = $4
		RETURNING `+intentColumns, orderID, StatusPaid, paymentID, StatusCreated))
	return l.afterTransition(ctx, orderID, StatusPaid, o, err)
}

// MarkFailed moves a created intent to failed. Terminal intents are left alone.
func (l *Ledger) MarkFailed(ctx context.Context, orderID string) (*OrderIntent, bool, error) {
	o, err := scanIntent(l.DB.QueryRow(ctx, `
		UPDATE order_intents
		SET status = $2, updated_at = NOW()
		WHERE razorpay_order_id = $1 AND status = $3
		RETURNING `+intentColumns, orderID, StatusFailed, StatusCreated))
	return l.afterTransition(ctx, orderID, StatusFailed, o, err)
}

func (l *Ledger) afterTransition(ctx context.Context, orderID, to string, o *OrderIntent, err error) (*OrderIntent, bool, error) {
	if err == nil {
		logger.InfoLogger.Infof("Order %s moved to %s", orderID, to)
		return o, true, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		logger.ErrorLogger.Errorf("Failed to mark order %s %s: %v", orderID, to, err)
		return nil, false, fmt.Errorf("failed to mark order %s: %w", to, err)
	}

	// No row matched: either unknown or already terminal.
	current, err := l.Lookup(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// ClaimNotification atomically reserves the right to send the confirmation
// mail for an order. Only one caller ever gets true until it is released.
func (l *Ledger) ClaimNotification(ctx context.Context, orderID string) (bool, error) {
	tag, err := l.DB.Exec(ctx, `
		UPDATE order_intents SET notified_at = NOW()
		WHERE razorpay_order_id = $1 AND notified_at IS NULL`, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseNotification undoes a claim after a failed send so a redelivery may retry.
func (l *Ledger) ReleaseNotification(ctx context.Context, orderID string) error {
	_, err := l.DB.Exec(ctx, `UPDATE order_intents SET notified_at = NULL WHERE razorpay_order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to release notification claim: %w", err)
	}
	return nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderIntent, error) {
	return l.list(ctx, `SELECT `+intentColumns+` FROM order_intents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (l *Ledger) ListAll(ctx context.Context) ([]OrderIntent, error) {
	return l.list(ctx, `SELECT `+intentColumns+` FROM order_intents ORDER BY created_at DESC`)
}

func (l *Ledger) list(ctx context.Context, query string, args ...any) ([]OrderIntent, error) {
	rows, err := l.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order intents: %w", err)
	}
	defer rows.Close()

	orders := []OrderIntent{}
	for rows.Next() {
		o, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order intent: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
