package payment_controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/clients"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/booking_intent_models"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/models/webhook_event_models"
	"github.com/joy095/travelmint/services/payment_service"
	"github.com/joy095/travelmint/utils"
	"github.com/joy095/travelmint/utils/webhook"
)

// Orders is implemented by payment_service.OrderService.
type Orders interface {
	CreateOrder(ctx context.Context, user *user_models.User, amount int64, bookingIntentID string) (*clients.GatewayOrder, error)
	OrderStatus(ctx context.Context, user *user_models.User, orderID string) (*order_models.OrderIntent, error)
}

// History lists recorded order intents.
type History interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]order_models.OrderIntent, error)
	ListAll(ctx context.Context) ([]order_models.OrderIntent, error)
}

// EventHandler is implemented by payment_service.Materializer.
type EventHandler interface {
	HandleCaptured(ctx context.Context, p payment_service.PaymentEntity) (payment_service.Outcome, error)
	HandleFailed(ctx context.Context, p payment_service.PaymentEntity) (payment_service.Outcome, error)
}

// EventRecorder keeps the webhook audit trail.
type EventRecorder interface {
	Record(ctx context.Context, e *webhook_event_models.WebhookEvent) error
}

// PaymentController serves order creation, order reads and the gateway webhook.
type PaymentController struct {
	orders   Orders
	history  History
	handler  EventHandler
	recorder EventRecorder
	verifier *webhook.Verifier
	keyID    string
}

func NewPaymentController(orders Orders, history History, handler EventHandler, recorder EventRecorder, verifier *webhook.Verifier, keyID string) *PaymentController {
	return &PaymentController{
		orders:   orders,
		history:  history,
		handler:  handler,
		recorder: recorder,
		verifier: verifier,
		keyID:    keyID,
	}
}

type CreateOrderRequest struct {
	Amount          int64  `json:"amount"`
	BookingIntentID string `json:"bookingIntentId"`
}

// CreateOrder creates a gateway order for the signed-in user.
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	user, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	order, err := pc.orders.CreateOrder(c.Request.Context(), user, req.Amount, req.BookingIntentID)
	if err != nil {
		status, message := createOrderError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorLogger.Errorf("Create order failed for user %s: %v", user.ID, err)
		}
		utils.Fail(c, status, message)
		return
	}

	logger.InfoLogger.Infof("Order %s created for user %s, amount %d", order.ID, user.ID, order.Amount)
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func createOrderError(err error) (int, string) {
	switch {
	case errors.Is(err, payment_service.ErrUnverified):
		return http.StatusForbidden, "Please verify your email before making a payment."
	case errors.Is(err, payment_service.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid amount"
	case errors.Is(err, payment_service.ErrAmountMismatch):
		return http.StatusBadRequest, "Amount does not match the booking total"
	case errors.Is(err, booking_intent_models.ErrIntentNotFound):
		return http.StatusBadRequest, "Booking session expired. Please start the booking again."
	default:
		return http.StatusInternalServerError, "Could not create order"
	}
}

// GetKey returns the public key the checkout widget needs.
func (pc *PaymentController) GetKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "key": pc.keyID})
}

// GetOrderStatus returns one order intent to its owner or an admin.
func (pc *PaymentController) GetOrderStatus(c *gin.Context) {
	user, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	intent, err := pc.orders.OrderStatus(c.Request.Context(), user, c.Param("orderId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "order": intent})
	case errors.Is(err, order_models.ErrOrderNotFound):
		utils.Fail(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, payment_service.ErrForbidden):
		utils.Fail(c, http.StatusForbidden, "You can only view your own orders")
	default:
		logger.ErrorLogger.Errorf("Order status lookup failed: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Could not load order")
	}
}

// MyOrders lists the signed-in user's payments, newest first.
func (pc *PaymentController) MyOrders(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orders, err := pc.history.ListByUser(c.Request.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list orders for %s: %v", userID, err)
		utils.Fail(c, http.StatusInternalServerError, "Could not load orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// AllOrders lists every payment for admins.
func (pc *PaymentController) AllOrders(c *gin.Context) {
	orders, err := pc.history.ListAll(c.Request.Context())
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list orders: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Could not load orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}
