package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/joy095/travelmint/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	verifyEmailTemplate      = "verify_email.html"
	resetPasswordTemplate    = "reset_password.html"
	bookingConfirmedTemplate = "booking_confirmed.html"
	paymentReceivedTemplate  = "payment_received.html"
	bookingCancelledTemplate = "booking_cancelled.html"
)

const dateLayout = "02 Jan 2006"

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"rupees": FormatRupees,
}).ParseFS(templateFS, "templates/*.html"))

// FormatRupees renders an amount in paise as rupees with two decimals.
func FormatRupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s%d.%02d", sign, paise/100, paise%100)
}

type BookingConfirmation struct {
	Name        string
	PackageName string
	TravelDate  time.Time
	Persons     int
	TotalPrice  int64
	BookingID   string
	OrderID     string
	PaymentID   string
	Amount      int64
	Method      string
}

type PaymentReceipt struct {
	Name      string
	OrderID   string
	PaymentID string
	Amount    int64
	Method    string
	Status    string
}

type BookingCancellation struct {
	Name        string
	PackageName string
	TravelDate  time.Time
	Persons     int
	TotalPrice  int64
	BookingID   string
}

// Notifier renders transactional mails and hands them to a Mailer.
// Callers decide whether a failure matters; the notifier never retries.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

func (n *Notifier) VerifyEmail(ctx context.Context, to, name, link string) error {
	return n.send(ctx, to, "Verify your email", verifyEmailTemplate, map[string]any{
		"Name": name,
		"Link": link,
	})
}

func (n *Notifier) ResetPassword(ctx context.Context, to, name, link string, validFor time.Duration) error {
	return n.send(ctx, to, "Reset your password", resetPasswordTemplate, map[string]any{
		"Name":     name,
		"Link":     link,
		"ValidFor": validFor.String(),
	})
}

func (n *Notifier) BookingConfirmed(ctx context.Context, to string, b BookingConfirmation) error {
	return n.send(ctx, to, "Your booking is confirmed", bookingConfirmedTemplate, map[string]any{
		"Name":        b.Name,
		"PackageName": b.PackageName,
		"TravelDate":  b.TravelDate.Format(dateLayout),
		"Persons":     b.Persons,
		"TotalPrice":  b.TotalPrice,
		"BookingID":   b.BookingID,
		"OrderID":     b.OrderID,
		"PaymentID":   b.PaymentID,
		"Amount":      b.Amount,
		"Method":      b.Method,
	})
}

// PaymentReceived is sent when a payment is captured but no booking could be
// built from the order.
func (n *Notifier) PaymentReceived(ctx context.Context, to string, p PaymentReceipt) error {
	return n.send(ctx, to, "Payment received", paymentReceivedTemplate, p)
}

func (n *Notifier) BookingCancelled(ctx context.Context, to string, b BookingCancellation) error {
	return n.send(ctx, to, "Your booking was cancelled", bookingCancelledTemplate, map[string]any{
		"Name":        b.Name,
		"PackageName": b.PackageName,
		"TravelDate":  b.TravelDate.Format(dateLayout),
		"Persons":     b.Persons,
		"TotalPrice":  b.TotalPrice,
		"BookingID":   b.BookingID,
	})
}

func (n *Notifier) send(ctx context.Context, to, subject, name string, data any) error {
	if n.mailer == nil {
		return ErrMailerMisconfigured
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		logger.ErrorLogger.Errorf("Failed to execute email template %s: %v", name, err)
		return fmt.Errorf("failed to execute email template: %w", err)
	}
	return n.mailer.Send(ctx, to, subject, body.String())
}
