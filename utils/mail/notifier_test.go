package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joy095/travelmint/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "1500.00", FormatRupees(150000))
	assert.Equal(t, "0.05", FormatRupees(5))
	assert.Equal(t, "-12.34", FormatRupees(-1234))
}

func TestBookingConfirmed(t *testing.T) {
	m := new(mockMailer)
	var body string
	m.On("Send", mock.Anything, "u@example.com", "Your booking is confirmed", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil).Once()

	n := NewNotifier(m)
	err := n.BookingConfirmed(context.Background(), "u@example.com", BookingConfirmation{
		Name:        "Asha",
		PackageName: "Goa <Getaway>",
		TravelDate:  time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		Persons:     2,
		TotalPrice:  150000,
		BookingID:   "b-1",
		OrderID:     "order_abc",
		PaymentID:   "pay_123",
		Amount:      150000,
	})
	require.NoError(t, err)
	m.AssertExpectations(t)

	assert.Contains(t, body, "Hi Asha")
	assert.Contains(t, body, "24 Dec 2026")
	assert.Contains(t, body, "1500.00")
	assert.Contains(t, body, "pay_123")
	assert.Contains(t, body, "Goa &lt;Getaway&gt;")
	assert.Contains(t, body, "Method: -")
}

func TestVerifyEmailPropagatesMailerError(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, "u@example.com", "Verify your email", mock.Anything).
		Return(errors.New("smtp down"))

	err := NewNotifier(m).VerifyEmail(context.Background(), "u@example.com", "there", "https://app/verify?token=x")
	assert.EqualError(t, err, "smtp down")
}

func TestNotifierWithoutMailer(t *testing.T) {
	err := NewNotifier(nil).BookingCancelled(context.Background(), "u@example.com", BookingCancellation{Name: "Asha"})
	assert.ErrorIs(t, err, ErrMailerMisconfigured)
}

func TestPaymentReceived(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, "u@example.com", "Payment received", mock.MatchedBy(func(b string) bool {
		return strings.Contains(b, "order_abc") && strings.Contains(b, "upi") && strings.Contains(b, "1500.00")
	})).Return(nil)

	err := NewNotifier(m).PaymentReceived(context.Background(), "u@example.com", PaymentReceipt{
		Name: "Asha", OrderID: "order_abc", PaymentID: "pay_123", Amount: 150000, Method: "upi", Status: "captured",
	})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(config.SMTPConfig{Username: "me@gmail.com", Password: "app-pass"})
	require.NoError(t, err)
	assert.Equal(t, gmailHost, m.dialer.Host)
	assert.Equal(t, 587, m.dialer.Port)
	assert.False(t, m.dialer.SSL)

	m, err = NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "me", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, m.dialer.SSL)
	assert.Equal(t, "me", m.from)

	_, err = NewSMTPMailer(config.SMTPConfig{Username: "me@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrMailerMisconfigured)

	_, err = NewSMTPMailer(config.SMTPConfig{Username: "me@gmail.com"})
	assert.ErrorIs(t, err, ErrMailerMisconfigured)
}
