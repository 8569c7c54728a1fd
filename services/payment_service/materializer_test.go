package payment_service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/joy095/travelmint/events"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/utils/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func captured(orderID, paymentID string, amount int64) PaymentEntity {
	return PaymentEntity{ID: paymentID, OrderID: orderID, Amount: amount, Method: "upi", Status: "captured"}
}

func TestHandleCapturedMaterializesBooking(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, "asha@example.com", mock.MatchedBy(func(b mail.BookingConfirmation) bool {
		return b.PaymentID == "pay_123" && b.PackageName == "Goa Getaway" && b.Persons == 2 && b.Amount == 150000
	})).Return(nil).Once()

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
	require.NoError(t, err)

	assert.Equal(t, OutcomeMaterialized, outcome)
	assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_abc"))
	require.Equal(t, 1, f.bookings.count())

	b, err := f.bookings.GetByPaymentID(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, b.UserID)
	assert.Equal(t, f.pkg.ID, b.PackageID)
	assert.Equal(t, "order_abc", b.OrderID)
	assert.Equal(t, int64(150000), b.TotalPrice)

	f.notifier.AssertExpectations(t)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeBookingConfirmed, f.publisher.events[0].Type)
	assert.Equal(t, "2026-12-24", f.publisher.events[0].TravelDate)
}

func TestHandleCapturedKeepsLedgerAmountOnMismatch(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, "asha@example.com", mock.MatchedBy(func(b mail.BookingConfirmation) bool {
		return b.Amount == 150000
	})).Return(nil).Once()

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 100))
	require.NoError(t, err)

	assert.Equal(t, OutcomeMaterialized, outcome)
	assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_abc"))
	b, err := f.bookings.GetByPaymentID(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, int64(150000), b.TotalPrice)
	f.notifier.AssertExpectations(t)
}

func TestHandleCapturedIsIdempotent(t *testing.T) {
	for _, deliveries := range []int{1, 2, 5} {
		f := newFixture()
		f.seedOrder("order_abc", 150000)
		f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		for i := 0; i < deliveries; i++ {
			outcome, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
			require.NoError(t, err)
			if i == 0 {
				assert.Equal(t, OutcomeMaterialized, outcome)
			} else {
				assert.Equal(t, OutcomeReplayed, outcome)
			}
		}

		assert.Equal(t, 1, f.bookings.count(), "deliveries=%d", deliveries)
		assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_abc"))
		f.notifier.AssertNumberOfCalls(t, "BookingConfirmed", 1)
		assert.Len(t, f.publisher.events, 1)
	}
}

func TestHandleCapturedConcurrentDeliveries(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.bookings.count())
	f.notifier.AssertNumberOfCalls(t, "BookingConfirmed", 1)
}

func TestHandleCapturedUnknownOrder(t *testing.T) {
	f := newFixture()

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_missing", "pay_1", 1000))
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnknownOrder, outcome)
	assert.Zero(t, f.bookings.count())
	f.notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCapturedSurvivesNotifierFailure(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaterialized, outcome)
	assert.Equal(t, 1, f.bookings.count())
	assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_abc"))

	// The claim was released, so a redelivery tries the mail again without rebooking.
	outcome, err = f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplayed, outcome)
	assert.Equal(t, 1, f.bookings.count())
	f.notifier.AssertNumberOfCalls(t, "BookingConfirmed", 2)
}

func TestHandleCapturedAfterFailure(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)

	outcome, err := f.m.HandleFailed(context.Background(), PaymentEntity{ID: "pay_1", OrderID: "order_abc", Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	outcome, err = f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_2", 150000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, order_models.StatusFailed, f.ledger.status("order_abc"))
	assert.Zero(t, f.bookings.count())
}

func TestHandleCapturedSecondPaymentOnPaidOrder(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_1", 150000))
	require.NoError(t, err)

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_2", 150000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, 1, f.bookings.count())
}

func TestHandleCapturedWithoutSnapshot(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.ledger.RecordIntent(context.Background(), &order_models.OrderIntent{
		RazorpayOrderID: "order_plain", UserID: f.user.ID, Amount: 5000,
	}))
	f.notifier.On("PaymentReceived", mock.Anything, "asha@example.com", mock.MatchedBy(func(p mail.PaymentReceipt) bool {
		return p.OrderID == "order_plain" && p.Amount == 5000
	})).Return(nil).Once()

	outcome, err := f.m.HandleCaptured(context.Background(), captured("order_plain", "pay_9", 5000))
	require.NoError(t, err)

	assert.Equal(t, OutcomePaymentOnly, outcome)
	assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_plain"))
	assert.Zero(t, f.bookings.count())
	assert.Empty(t, f.publisher.events)
	f.notifier.AssertExpectations(t)
}

func TestHandleCapturedMissingIDs(t *testing.T) {
	f := newFixture()
	outcome, err := f.m.HandleCaptured(context.Background(), PaymentEntity{OrderID: "order_abc"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestHandleFailed(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)

	outcome, err := f.m.HandleFailed(context.Background(), PaymentEntity{ID: "pay_1", OrderID: "order_abc"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	outcome, err = f.m.HandleFailed(context.Background(), PaymentEntity{ID: "pay_1", OrderID: "order_abc"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplayed, outcome)

	outcome, err = f.m.HandleFailed(context.Background(), PaymentEntity{ID: "pay_x", OrderID: "order_missing"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownOrder, outcome)
}

func TestHandleFailedAfterPaid(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
	require.NoError(t, err)

	outcome, err := f.m.HandleFailed(context.Background(), PaymentEntity{ID: "pay_0", OrderID: "order_abc"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplayed, outcome)
	assert.Equal(t, order_models.StatusPaid, f.ledger.status("order_abc"))
}

func TestBookingEventFrom(t *testing.T) {
	f := newFixture()
	f.seedOrder("order_abc", 150000)
	f.notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err := f.m.HandleCaptured(context.Background(), captured("order_abc", "pay_123", 150000))
	require.NoError(t, err)

	b, _ := f.bookings.GetByPaymentID(context.Background(), "pay_123")
	e := BookingEventFrom(events.TypeBookingCancelled, b)
	assert.Equal(t, b.ID.String(), e.BookingID)
	assert.Equal(t, "pay_123", e.PaymentID)
	assert.Equal(t, events.TypeBookingCancelled, e.Type)
}
