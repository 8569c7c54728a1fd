package webhook_event_models

import (
	"context"
	"fmt"

	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
)

// WebhookEvent is an audit row for every callback the gateway delivers,
// including ones that fail verification.
type WebhookEvent struct {
	EventType      string
	PaymentID      string
	OrderID        string
	RawPayload     string
	SignatureValid bool
	Outcome        string
}

type Store struct {
	DB shared_models.DBTX
}

func NewStore(db shared_models.DBTX) *Store {
	return &Store{DB: db}
}

func (s *Store) Record(ctx context.Context, e *WebhookEvent) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO webhook_events (event_type, payment_id, order_id, raw_payload, signature_valid, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.EventType, e.PaymentID, e.OrderID, e.RawPayload, e.SignatureValid, e.Outcome)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record webhook event %s for order %s: %v", e.EventType, e.OrderID, err)
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
