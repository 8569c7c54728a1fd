package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/badwords"
	"github.com/joy095/travelmint/clients"
	"github.com/joy095/travelmint/config"
	"github.com/joy095/travelmint/config/db"
	"github.com/joy095/travelmint/config/redis"
	"github.com/joy095/travelmint/controllers/auth_controller"
	"github.com/joy095/travelmint/controllers/booking_controller"
	"github.com/joy095/travelmint/controllers/package_controller"
	"github.com/joy095/travelmint/controllers/payment_controller"
	"github.com/joy095/travelmint/controllers/rating_controller"
	"github.com/joy095/travelmint/controllers/user_controllers"
	"github.com/joy095/travelmint/events"
	"github.com/joy095/travelmint/logger"
	middleware "github.com/joy095/travelmint/middlewares"
	"github.com/joy095/travelmint/middlewares/auth"
	"github.com/joy095/travelmint/middlewares/cors"
	logger_middleware "github.com/joy095/travelmint/middlewares/logger"
	"github.com/joy095/travelmint/models/booking_intent_models"
	"github.com/joy095/travelmint/models/booking_models"
	"github.com/joy095/travelmint/models/order_models"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/joy095/travelmint/models/rating_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/models/webhook_event_models"
	"github.com/joy095/travelmint/routes"
	"github.com/joy095/travelmint/services/payment_service"
	"github.com/joy095/travelmint/utils/mail"
	"github.com/joy095/travelmint/utils/tokens"
	"github.com/joy095/travelmint/utils/webhook"
)

func init() {
	// Initialize loggers before using
	logger.InitLoggers()

	config.LoadEnv()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	if path := os.Getenv("BADWORDS_FILE"); path != "" {
		if err := badwords.LoadBadWords(path); err != nil {
			logger.WarnLogger.Warnf("Keeping built-in bad words list: %v", err)
		}
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Database: %v", err)
	}
	defer db.Close(pool)

	if err := db.Migrate(ctx, pool); err != nil {
		logger.ErrorLogger.Fatalf("Migration failed: %v", err)
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Redis: %v", err)
	}
	defer redis.Close(rdb)

	// Mail problems never stop the server; flows that need mail answer 500.
	var mailer mail.Mailer
	if smtp, err := mail.NewSMTPMailer(cfg.SMTP); err != nil {
		logger.ErrorLogger.Errorf("Mail disabled: %v", err)
	} else {
		if err := smtp.Verify(); err != nil {
			logger.WarnLogger.Warnf("SMTP verification failed; sending will be retried per message: %v", err)
		}
		mailer = smtp
	}
	notifier := mail.NewNotifier(mailer)
	var accountMailer auth_controller.AccountMailer
	if mailer != nil {
		accountMailer = notifier
	}

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.WarnLogger.Warnf("Closing event publisher: %v", err)
		}
	}()

	var images clients.ImageStore
	if cfg.S3.Enabled() {
		store, err := clients.NewS3Storage(cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket)
		if err != nil {
			logger.ErrorLogger.Errorf("Photo uploads disabled: %v", err)
		} else {
			images = store
		}
	} else {
		logger.InfoLogger.Info("AWS_S3_BUCKET not configured; photo uploads disabled")
	}

	users := &user_models.Store{DB: pool}
	packages := package_models.NewStore(pool)
	bookings := booking_models.NewStore(pool)
	ledger := order_models.NewLedger(pool)
	intents := booking_intent_models.NewStore(rdb)

	materializer := payment_service.NewMaterializer(ledger, bookings, users, packages, notifier, publisher)
	orders := payment_service.NewOrderService(clients.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret), ledger, intents, materializer)

	ctrl := routes.Controllers{
		Auth:     auth_controller.NewAuthController(pool, accountMailer, tokens.NewSigner(cfg.JWT.EmailSecret, cfg.JWT.ResetSecret), cfg.JWT.AccessSecret, cfg.BaseURL),
		Users:    user_controllers.NewUserController(pool, images, cfg.SecureCookies()),
		Packages: package_controller.NewPackageController(packages),
		Bookings: booking_controller.NewBookingController(bookings, packages, users, intents, notifier, publisher),
		Payments: payment_controller.NewPaymentController(orders, ledger, materializer,
			webhook_event_models.NewStore(pool), webhook.NewVerifier(cfg.Razorpay.WebhookSecret), cfg.Razorpay.KeyID),
		Ratings: rating_controller.NewRatingController(rating_models.NewStore(pool)),
	}
	guards := routes.Guards{
		Auth:   auth.NewMiddleware(users, cfg.JWT.AccessSecret),
		Limits: middleware.NewRateLimiters(rdb),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Apply Logger Middleware
	r.Use(logger_middleware.GinLogger())

	// Apply CORS Middleware
	r.Use(cors.CorsMiddleware(cfg.CORSOrigin))

	routes.RegisterRoutes(r, ctrl, guards)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok from travelmint",
		})
	})

	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoLogger.Infof("Starting server on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Fatalf("Server failed to listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.InfoLogger.Info("Server exited gracefully.")
}
