package booking_controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/events"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/booking_intent_models"
	"github.com/joy095/travelmint/models/booking_models"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/services/payment_service"
	"github.com/joy095/travelmint/utils"
	"github.com/joy095/travelmint/utils/mail"
)

const cancelMailTimeout = 20 * time.Second

type Bookings interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking_models.Booking, error)
	ListCurrent(ctx context.Context, userID *uuid.UUID, searchTerm string) ([]booking_models.BookingView, error)
	ListAll(ctx context.Context, userID *uuid.UUID, searchTerm string) ([]booking_models.BookingView, error)
	Cancel(ctx context.Context, id uuid.UUID) (*booking_models.Booking, error)
	HideFromHistory(ctx context.Context, id uuid.UUID, now time.Time) error
}

type Packages interface {
	GetByID(ctx context.Context, id uuid.UUID) (*package_models.TravelPackage, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user_models.User, error)
}

type IntentSaver interface {
	Save(ctx context.Context, intent *booking_intent_models.BookingIntent) error
}

type CancellationNotifier interface {
	BookingCancelled(ctx context.Context, to string, b mail.BookingCancellation) error
}

// BookingController serves booking drafts, booking lists and cancellations.
// Bookings themselves are only created from captured payments.
type BookingController struct {
	bookings  Bookings
	packages  Packages
	users     Users
	intents   IntentSaver
	notifier  CancellationNotifier
	publisher events.Publisher
	now       func() time.Time
}

func NewBookingController(bookings Bookings, packages Packages, users Users, intents IntentSaver, notifier CancellationNotifier, publisher events.Publisher) *BookingController {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &BookingController{
		bookings:  bookings,
		packages:  packages,
		users:     users,
		intents:   intents,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

type CreateIntentRequest struct {
	PackageID string `json:"packageId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Persons   int    `json:"persons" binding:"required"`
}

// CreateIntent prices a booking draft server-side. The client pays the
// returned total through create-order.
func (bc *BookingController) CreateIntent(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "packageId, date and persons are required")
		return
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	pkg, err := bc.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, package_models.ErrPackageNotFound) {
			utils.Fail(c, http.StatusNotFound, "Package not found")
			return
		}
		logger.ErrorLogger.Errorf("Failed to load package %s for intent: %v", packageID, err)
		utils.Fail(c, http.StatusInternalServerError, "Could not create booking")
		return
	}

	intent, err := booking_intent_models.NewBookingIntent(userID, pkg.ID, date, req.Persons, pkg.UnitPrice(), bc.now())
	if err != nil {
		if errors.Is(err, booking_intent_models.ErrInvalidPersons) || errors.Is(err, booking_intent_models.ErrTravelDateInPast) {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Could not create booking")
		return
	}
	if err := bc.intents.Save(ctx, intent); err != nil {
		utils.Fail(c, http.StatusInternalServerError, "Could not create booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "intent": intent})
}

// GetCurrentBookings lists upcoming active bookings of every user (admin).
func (bc *BookingController) GetCurrentBookings(c *gin.Context) {
	bc.respondList(c, bc.bookings.ListCurrent, nil)
}

// GetAllBookings lists every booking (admin).
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	bc.respondList(c, bc.bookings.ListAll, nil)
}

func (bc *BookingController) GetUserCurrentBookings(c *gin.Context) {
	target, ok := bc.targetUser(c, "id")
	if !ok {
		return
	}
	bc.respondList(c, bc.bookings.ListCurrent, &target)
}

func (bc *BookingController) GetAllUserBookings(c *gin.Context) {
	target, ok := bc.targetUser(c, "id")
	if !ok {
		return
	}
	bc.respondList(c, bc.bookings.ListAll, &target)
}

type lister func(ctx context.Context, userID *uuid.UUID, searchTerm string) ([]booking_models.BookingView, error)

func (bc *BookingController) respondList(c *gin.Context, list lister, userID *uuid.UUID) {
	views, err := list(c.Request.Context(), userID, c.Query("searchTerm"))
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "Could not load bookings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": views})
}

// targetUser parses the user id path parameter and checks the caller may act for it.
func (bc *BookingController) targetUser(c *gin.Context, param string) (uuid.UUID, bool) {
	user, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	target, ok := utils.ParseUUIDParam(c, param)
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid user id")
		return uuid.Nil, false
	}
	if !utils.CanActFor(user, target) {
		utils.Fail(c, http.StatusForbidden, "You can only access your own bookings")
		return uuid.Nil, false
	}
	return target, true
}

// ownedBooking loads the booking in :id and checks it belongs to :userId.
func (bc *BookingController) ownedBooking(c *gin.Context) (*booking_models.Booking, bool) {
	owner, ok := bc.targetUser(c, "userId")
	if !ok {
		return nil, false
	}
	bookingID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid booking id")
		return nil, false
	}
	b, err := bc.bookings.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			utils.Fail(c, http.StatusNotFound, "Booking not found")
			return nil, false
		}
		utils.Fail(c, http.StatusInternalServerError, "Could not load booking")
		return nil, false
	}
	if b.UserID != owner {
		utils.Fail(c, http.StatusNotFound, "Booking not found")
		return nil, false
	}
	return b, true
}

// DeleteBookingHistory hides a cancelled or past booking from the user's history.
func (bc *BookingController) DeleteBookingHistory(c *gin.Context) {
	b, ok := bc.ownedBooking(c)
	if !ok {
		return
	}
	err := bc.bookings.HideFromHistory(c.Request.Context(), b.ID, bc.now())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking removed from history"})
	case errors.Is(err, booking_models.ErrTripNotFinished):
		utils.Fail(c, http.StatusBadRequest, "Only cancelled or completed bookings can be removed")
	default:
		utils.Fail(c, http.StatusInternalServerError, "Could not update booking history")
	}
}

// CancelBooking cancels an active booking, mails the traveller and publishes
// the cancellation. Refunds are handled outside the application.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	b, ok := bc.ownedBooking(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cancelled, err := bc.bookings.Cancel(ctx, b.ID)
	switch {
	case err == nil:
	case errors.Is(err, booking_models.ErrAlreadyCancelled):
		utils.Fail(c, http.StatusBadRequest, "Booking is already cancelled")
		return
	case errors.Is(err, booking_models.ErrBookingNotFound):
		utils.Fail(c, http.StatusNotFound, "Booking not found")
		return
	default:
		utils.Fail(c, http.StatusInternalServerError, "Could not cancel booking")
		return
	}

	bc.notifyCancelled(ctx, cancelled)
	if err := bc.publisher.PublishBooking(ctx, payment_service.BookingEventFrom(events.TypeBookingCancelled, cancelled)); err != nil {
		logger.WarnLogger.Warnf("Failed to publish cancellation of booking %s: %v", cancelled.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking cancelled", "booking": cancelled})
}

// notifyCancelled is best effort; the cancellation already happened.
func (bc *BookingController) notifyCancelled(ctx context.Context, b *booking_models.Booking) {
	user, err := bc.users.GetUserByID(ctx, b.UserID)
	if err != nil {
		logger.WarnLogger.Warnf("No cancellation mail for booking %s: %v", b.ID, err)
		return
	}
	packageName := ""
	if pkg, err := bc.packages.GetByID(ctx, b.PackageID); err == nil {
		packageName = pkg.Name
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelMailTimeout)
	defer cancel()
	err = bc.notifier.BookingCancelled(mctx, user.Email, mail.BookingCancellation{
		Name:        user.DisplayName(),
		PackageName: packageName,
		TravelDate:  b.TravelDate,
		Persons:     b.Persons,
		TotalPrice:  b.TotalPrice,
		BookingID:   b.ID.String(),
	})
	if err != nil {
		logger.ErrorLogger.Errorf("Cancellation mail for booking %s failed: %v", b.ID, err)
	}
}
