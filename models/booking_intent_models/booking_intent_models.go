package booking_intent_models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travelmint/logger"
	"github.com/redis/go-redis/v9"
)

const (
	RedisIntentPrefix = "booking_intent:"
	IntentTTL         = 30 * time.Minute
	MaxPersons        = 20
)

var (
	ErrIntentNotFound   = errors.New("booking intent not found or expired")
	ErrInvalidPersons   = errors.New("persons must be between 1 and 20")
	ErrTravelDateInPast = errors.New("travel date must be in the future")
)

// BookingIntent is the short-lived draft a client pays for. It only lives in
// Redis; the order ledger keeps its own snapshot once an order is created.
type BookingIntent struct {
	ID         string    `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	PackageID  uuid.UUID `json:"packageId"`
	TravelDate time.Time `json:"date"`
	Persons    int       `json:"persons"`
	UnitPrice  int64     `json:"unitPrice"`
	TotalPrice int64     `json:"totalPrice"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// NewBookingIntent prices a draft at unitPrice per traveller.
func NewBookingIntent(userID, packageID uuid.UUID, date time.Time, persons int, unitPrice int64, now time.Time) (*BookingIntent, error) {
	if persons < 1 || persons > MaxPersons {
		return nil, ErrInvalidPersons
	}
	// Travel dates are UTC calendar days; compare days, not instants.
	n := now.UTC()
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	if !date.UTC().Truncate(24 * time.Hour).After(today) {
		return nil, ErrTravelDateInPast
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking intent id: %w", err)
	}
	return &BookingIntent{
		ID:         id.String(),
		UserID:     userID,
		PackageID:  packageID,
		TravelDate: date,
		Persons:    persons,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice * int64(persons),
		ExpiresAt:  now.Add(IntentTTL),
	}, nil
}

func intentKey(id string) string {
	return RedisIntentPrefix + id
}

type Store struct {
	Redis *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{Redis: rdb}
}

func (s *Store) Save(ctx context.Context, intent *BookingIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal booking intent: %w", err)
	}
	if err := s.Redis.Set(ctx, intentKey(intent.ID), data, IntentTTL).Err(); err != nil {
		logger.ErrorLogger.Errorf("Redis error saving booking intent %s: %v", intent.ID, err)
		return fmt.Errorf("failed to save booking intent: %w", err)
	}
	logger.InfoLogger.Infof("Booking intent %s saved for user %s (package %s)", intent.ID, intent.UserID, intent.PackageID)
	return nil
}

// Get returns the intent only if it belongs to userID.
func (s *Store) Get(ctx context.Context, id string, userID uuid.UUID) (*BookingIntent, error) {
	data, err := s.Redis.Get(ctx, intentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrIntentNotFound
		}
		logger.ErrorLogger.Errorf("Redis error reading booking intent %s: %v", id, err)
		return nil, fmt.Errorf("failed to read booking intent: %w", err)
	}

	var intent BookingIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode booking intent: %w", err)
	}
	if intent.UserID != userID {
		return nil, ErrIntentNotFound
	}
	return &intent, nil
}
