package booking_models

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
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrTripNotFinished  = errors.New("booking can be removed from history only after cancellation or after the trip date")
)

// Booking is a confirmed reservation. PaymentID is the idempotency key:
// one gateway payment never yields two bookings.
type Booking struct {
	ID            uuid.UUID `json:"_id"`
	PackageID     uuid.UUID `json:"packageId"`
	UserID        uuid.UUID `json:"buyer"`
	OrderID       string    `json:"orderId"`
	PaymentID     string    `json:"paymentId"`
	TravelDate    time.Time `json:"date"`
	Persons       int       `json:"persons"`
	TotalPrice    int64     `json:"totalPrice"`
	Status        string    `json:"status"`
	HistoryHidden bool      `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BookingView is a booking joined with the package and buyer it refers to.
type BookingView struct {
	Booking
	PackageName   string `json:"packageName"`
	PackageImage  string `json:"packageImage"`
	Destination   string `json:"destination"`
	BuyerUsername string `json:"buyerUsername"`
	BuyerEmail    string `json:"buyerEmail"`
	BuyerPhone    string `json:"buyerPhone"`
}

// NewBooking creates an active booking for a captured payment.
func NewBooking(packageID, userID uuid.UUID, orderID, paymentID string, date time.Time, persons int, totalPrice int64) (*Booking, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for booking: %w", err)
	}
	now := time.Now()
	return &Booking{
		ID:         id,
		PackageID:  packageID,
		UserID:     userID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		TravelDate: date,
		Persons:    persons,
		TotalPrice: totalPrice,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanHideFromHistory reports whether the booking may leave the user's history.
// An active booking stays until its UTC travel day is over.
func (b *Booking) CanHideFromHistory(now time.Time) bool {
	if b.Status == StatusCancelled {
		return true
	}
	return !now.UTC().Before(b.TravelDate.UTC().AddDate(0, 0, 1))
}

type Store struct {
	DB shared_models.DBTX
}

func NewStore(db shared_models.DBTX) *Store {
	return &Store{DB: db}
}

const bookingColumns = `b.id, b.package_id, b.user_id, b.order_id, b.payment_id, b.travel_date, b.persons,
	b.total_price, b.status, b.history_hidden, b.created_at, b.updated_at`

const viewColumns = bookingColumns + `, p.name, COALESCE(p.images[1], ''), p.destination, u.username, u.email, u.phone`

const viewFrom = ` FROM bookings b JOIN packages p ON p.id = b.package_id JOIN users u ON u.id = b.user_id `

func scanBooking(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	err := row.Scan(&b.ID, &b.PackageID, &b.UserID, &b.OrderID, &b.PaymentID, &b.TravelDate, &b.Persons,
		&b.TotalPrice, &b.Status, &b.HistoryHidden, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// CreateOnce inserts the booking unless one already exists for its payment id.
// created is false when a concurrent or earlier delivery won the insert.
func (s *Store) CreateOnce(ctx context.Context, b *Booking) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
		INSERT INTO bookings (id, package_id, user_id, order_id, payment_id, travel_date, persons,
			total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (payment_id) DO NOTHING`,
		b.ID, b.PackageID, b.UserID, b.OrderID, b.PaymentID, b.TravelDate, b.Persons,
		b.TotalPrice, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert booking for payment %s: %v", b.PaymentID, err)
		return false, fmt.Errorf("failed to create booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.WarnLogger.Warnf("Booking for payment %s already exists", b.PaymentID)
		return false, nil
	}
	logger.InfoLogger.Infof("Booking %s created for payment %s", b.ID, b.PaymentID)
	return true, nil
}

func (s *Store) GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error) {
	b, err := scanBooking(s.DB.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.payment_id = $1`, paymentID))
	if err != nil && !errors.Is(err, ErrBookingNotFound) {
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return b, err
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(s.DB.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id))
	if err != nil && !errors.Is(err, ErrBookingNotFound) {
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return b, err
}

// ListCurrent returns active bookings whose trip is still ahead, newest first.
// A nil userID lists every user's bookings.
func (s *Store) ListCurrent(ctx context.Context, userID *uuid.UUID, searchTerm string) ([]BookingView, error) {
	return s.listViews(ctx, `
		WHERE b.status = 'active' AND b.travel_date >= CURRENT_DATE
		  AND ($1::uuid IS NULL OR b.user_id = $1)
		  AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' OR u.username ILIKE '%' || $2 || '%')
		ORDER BY b.created_at DESC`, userID, searchTerm)
}

// ListAll returns every booking. For a single user, bookings removed from
// history are skipped.
func (s *Store) ListAll(ctx context.Context, userID *uuid.UUID, searchTerm string) ([]BookingView, error) {
	return s.listViews(ctx, `
		WHERE ($1::uuid IS NULL OR (b.user_id = $1 AND NOT b.history_hidden))
		  AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' OR u.username ILIKE '%' || $2 || '%')
		ORDER BY b.created_at DESC`, userID, searchTerm)
}

func (s *Store) listViews(ctx context.Context, where string, args ...any) ([]BookingView, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+viewColumns+viewFrom+where, args...)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list bookings: %v", err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	views := []BookingView{}
	for rows.Next() {
		var v BookingView
		b := &v.Booking
		if err := rows.Scan(&b.ID, &b.PackageID, &b.UserID, &b.OrderID, &b.PaymentID, &b.TravelDate, &b.Persons,
			&b.TotalPrice, &b.Status, &b.HistoryHidden, &b.CreatedAt, &b.UpdatedAt,
			&v.PackageName, &v.PackageImage, &v.Destination, &v.BuyerUsername, &v.BuyerEmail, &v.BuyerPhone); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Cancel flips an active booking to cancelled. The row is kept.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(s.DB.QueryRow(ctx, `
		UPDATE bookings b SET status = 'cancelled', updated_at = NOW()
		WHERE b.id = $1 AND b.status = 'active'
		RETURNING `+bookingColumns, id))
	if err == nil {
		logger.InfoLogger.Infof("Booking %s cancelled", id)
		return b, nil
	}
	if !errors.Is(err, ErrBookingNotFound) {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if _, lookupErr := s.GetByID(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrAlreadyCancelled
}

// HideFromHistory removes a finished or cancelled booking from the owner's history.
func (s *Store) HideFromHistory(ctx context.Context, id uuid.UUID, now time.Time) error {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.CanHideFromHistory(now) {
		return ErrTripNotFinished
	}
	_, err = s.DB.Exec(ctx, `UPDATE bookings SET history_hidden = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to hide booking: %w", err)
	}
	logger.InfoLogger.Infof("Booking %s removed from history", id)
	return nil
}
