package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joy095/travelmint/logger"
	"github.com/razorpay/razorpay-go"
)

// ErrCreateOrder is returned for every order-creation failure, including a
// non-positive amount. Callers must not record anything when they see it.
var ErrCreateOrder = errors.New("could not create order")

// ErrNoCapturedPayment means the gateway has no captured payment for an order.
var ErrNoCapturedPayment = errors.New("no captured payment for order")

// GatewayOrder is the subset of a Razorpay order the application uses.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayPayment is the subset of a Razorpay payment entity the application uses.
type GatewayPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
	Status  string `json:"status"`
}

// PaymentGateway is the narrow contract the rest of the code depends on.
// Tests substitute their own implementation.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
	CapturedPayment(ctx context.Context, orderID string) (*GatewayPayment, error)
}

// razorpayOrders is the part of the SDK's order resource we call.
type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Payments(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayClient implements PaymentGateway on top of the Razorpay SDK.
type RazorpayClient struct {
	orders razorpayOrders
}

// NewRazorpayClient creates the SDK client with the given key pair.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayClient{orders: client.Order}
}

// CreateOrder creates a hosted order for amount (minor units).
// The SDK call is not context aware; ctx is only checked before the call.
func (r *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrCreateOrder, amount)
	}
	if currency == "" {
		currency = "INR"
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOrder, err)
	}

	body, err := r.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		logger.ErrorLogger.Errorf("Razorpay order creation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrCreateOrder, err)
	}

	order := orderFromMap(body)
	if order.ID == "" {
		logger.ErrorLogger.Errorf("Razorpay returned an order without id: %v", body)
		return nil, fmt.Errorf("%w: gateway response has no order id", ErrCreateOrder)
	}
	return order, nil
}

// FetchOrder returns the current gateway view of an order.
func (r *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := r.orders.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch razorpay order %s: %w", orderID, err)
	}
	return orderFromMap(body), nil
}

// CapturedPayment finds the captured payment attached to an order, if any.
func (r *RazorpayClient) CapturedPayment(ctx context.Context, orderID string) (*GatewayPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := r.orders.Payments(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for razorpay order %s: %w", orderID, err)
	}

	items, _ := body["items"].([]interface{})
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := paymentFromMap(m)
		if strings.EqualFold(p.Status, "captured") {
			if p.OrderID == "" {
				p.OrderID = orderID
			}
			return p, nil
		}
	}
	return nil, ErrNoCapturedPayment
}

func orderFromMap(m map[string]interface{}) *GatewayOrder {
	return &GatewayOrder{
		ID:       stringField(m, "id"),
		Amount:   intField(m, "amount"),
		Currency: stringField(m, "currency"),
		Receipt:  stringField(m, "receipt"),
		Status:   stringField(m, "status"),
	}
}

func paymentFromMap(m map[string]interface{}) *GatewayPayment {
	return &GatewayPayment{
		ID:      stringField(m, "id"),
		OrderID: stringField(m, "order_id"),
		Amount:  intField(m, "amount"),
		Method:  stringField(m, "method"),
		Status:  stringField(m, "status"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField handles the float64 the SDK's JSON decoding produces.
func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
