package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadEnv loads variables from a .env file when one exists. Real environment
// variables always take precedence.
func LoadEnv() {
	loadOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// ErrMisconfigured is wrapped by Validate when required settings are absent.
var ErrMisconfigured = errors.New("server misconfigured")

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type JWTConfig struct {
	AccessSecret string
	EmailSecret  string
	ResetSecret  string
}

type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
}

type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Enabled reports whether every S3 setting is present.
func (s S3Config) Enabled() bool {
	return s.Region != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

type Config struct {
	Port        string
	BaseURL     string
	CORSOrigin  string
	DatabaseURL string
	RedisURL    string
	Razorpay    RazorpayConfig
	SMTP        SMTPConfig
	JWT         JWTConfig
	Kafka       KafkaConfig
	S3          S3Config
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	LoadEnv()

	port := os.Getenv("SMTP_PORT")
	smtpPort := 587
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("%w: SMTP_PORT %q is not a number", ErrMisconfigured, port)
		}
		smtpPort = p
	}

	cfg := &Config{
		Port:        getenv("PORT", "8001"),
		BaseURL:     strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Razorpay: RazorpayConfig{
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
		},
		JWT: JWTConfig{
			AccessSecret: os.Getenv("JWT_SECRET"),
			EmailSecret:  os.Getenv("JWT_EMAIL_SECRET"),
			ResetSecret:  os.Getenv("JWT_RESET_SECRET"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			BookingTopic: getenv("KAFKA_BOOKING_TOPIC", "travelmint.bookings"),
		},
		S3: S3Config{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("AWS_S3_BUCKET"),
		},
	}
	cfg.CORSOrigin = getenv("CORS_ORIGIN", cfg.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SecureCookies reports whether session cookies need the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// Validate names every required variable that is empty.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"REDIS_URL", c.RedisURL},
		{"BASE_URL", c.BaseURL},
		{"RAZORPAY_KEY_ID", c.Razorpay.KeyID},
		{"RAZORPAY_KEY_SECRET", c.Razorpay.KeySecret},
		{"RAZORPAY_WEBHOOK_SECRET", c.Razorpay.WebhookSecret},
		{"SMTP_USER", c.SMTP.Username},
		{"SMTP_PASS", c.SMTP.Password},
		{"JWT_SECRET", c.JWT.AccessSecret},
		{"JWT_EMAIL_SECRET", c.JWT.EmailSecret},
		{"JWT_RESET_SECRET", c.JWT.ResetSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	// Gmail accounts can omit the host; everything else needs it.
	if c.SMTP.Host == "" && !strings.HasSuffix(strings.ToLower(c.SMTP.Username), "@gmail.com") {
		missing = append(missing, "SMTP_HOST")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMisconfigured, strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
