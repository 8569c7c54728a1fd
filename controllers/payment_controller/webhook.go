package payment_controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/webhook_event_models"
	"github.com/joy095/travelmint/services/payment_service"
	"github.com/joy095/travelmint/utils/webhook"
	"github.com/sirupsen/logrus"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"

	auditTimeout   = 5 * time.Second
	maxWebhookBody = 1 << 20
)

// WebhookEvent is the envelope Razorpay posts.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity payment_service.PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook verifies and applies one gateway callback. Replays and
// unknown orders are acknowledged with 200 so the gateway stops retrying;
// only internal failures return 500 and get redelivered.
func (pc *PaymentController) RazorpayWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnLogger.Warnf("Rejected webhook body over %d bytes from %s", tooLarge.Limit, c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"received": false, "message": "body too large"})
			return
		}
		logger.ErrorLogger.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "message": "invalid body"})
		return
	}

	if err := pc.verifier.Verify(body, webhook.SignatureFrom(c.Request.Header)); err != nil {
		logger.WarnLogger.WithFields(logrus.Fields{
			"client_ip": c.ClientIP(),
			"error":     err.Error(),
		}).Warn("Rejected webhook with bad signature")
		pc.audit(c.Request.Context(), &webhook_event_models.WebhookEvent{
			RawPayload: string(body),
			Outcome:    "rejected",
		})
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "message": "invalid signature"})
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.ErrorLogger.Errorf("Signed webhook with unparsable payload: %v", err)
		pc.audit(c.Request.Context(), &webhook_event_models.WebhookEvent{
			RawPayload:     string(body),
			SignatureValid: true,
			Outcome:        "invalid_payload",
		})
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "message": "invalid payload"})
		return
	}

	ctx := c.Request.Context()
	payment := event.Payload.Payment.Entity
	var outcome payment_service.Outcome

	switch event.Event {
	case EventPaymentCaptured, EventOrderPaid:
		outcome, err = pc.handler.HandleCaptured(ctx, payment)
	case EventPaymentFailed:
		outcome, err = pc.handler.HandleFailed(ctx, payment)
	default:
		logger.InfoLogger.Infof("Unhandled webhook event type received: %s", event.Event)
		outcome = payment_service.OutcomeIgnored
	}

	record := &webhook_event_models.WebhookEvent{
		EventType:      event.Event,
		PaymentID:      payment.ID,
		OrderID:        payment.OrderID,
		RawPayload:     string(body),
		SignatureValid: true,
		Outcome:        string(outcome),
	}
	if err != nil {
		record.Outcome = "error"
		pc.audit(ctx, record)
		logger.ErrorLogger.WithFields(logrus.Fields{
			"event":      event.Event,
			"order_id":   payment.OrderID,
			"payment_id": payment.ID,
		}).Errorf("Webhook processing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"received": false, "message": "processing failed"})
		return
	}
	pc.audit(ctx, record)

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// audit never fails the request; the audit trail is best effort.
func (pc *PaymentController) audit(ctx context.Context, e *webhook_event_models.WebhookEvent) {
	if pc.recorder == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	_ = pc.recorder.Record(actx, e)
}
