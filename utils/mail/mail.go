package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/joy095/travelmint/config"
	"github.com/joy095/travelmint/logger"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

const gmailHost = "smtp.gmail.com"

var ErrMailerMisconfigured = errors.New("server misconfigured: email settings are incomplete")

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends through an SMTP relay with gomail. The sender address is
// the authenticated mailbox, which Gmail requires.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds the dialer once at start-up. Gmail accounts may leave
// the host empty.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	host := strings.TrimSpace(cfg.Host)
	user := strings.TrimSpace(cfg.Username)
	isGmail := strings.Contains(strings.ToLower(host), "gmail.com") ||
		strings.HasSuffix(strings.ToLower(user), "@gmail.com")

	if isGmail {
		if user == "" || cfg.Password == "" {
			return nil, fmt.Errorf("%w: missing SMTP_USER/SMTP_PASS for Gmail", ErrMailerMisconfigured)
		}
		host = gmailHost
	} else if host == "" || user == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: provide SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS", ErrMailerMisconfigured)
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	dialer := gomail.NewDialer(host, port, user, cfg.Password)
	dialer.SSL = port == 465
	dialer.TLSConfig = &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	return &SMTPMailer{dialer: dialer, from: user}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	logger.InfoLogger.Infof("Attempting to connect to SMTP server: %s:%d", m.dialer.Host, m.dialer.Port)
	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	logger.InfoLogger.Infof("Email %q sent to %s", subject, to)
	return nil
}

// Verify opens and closes an authenticated SMTP session so bad credentials
// show up at start-up instead of at the first booking.
func (m *SMTPMailer) Verify() error {
	closer, err := m.dialer.Dial()
	if err != nil {
		logger.ErrorLogger.WithFields(logrus.Fields{
			"host": m.dialer.Host,
			"port": m.dialer.Port,
			"user": m.from,
		}).Errorf("SMTP config error: %v", err)
		return fmt.Errorf("smtp verify failed: %w", err)
	}
	logger.InfoLogger.Info("SMTP ready")
	return closer.Close()
}
