// Package services contains business logic.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/topclass/bookingguard/internal/catalog"
	"github.com/topclass/bookingguard/internal/idgen"
	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/models"
	"github.com/topclass/bookingguard/internal/repository"
	"github.com/topclass/bookingguard/pkg/logger"
)

// idRetries bounds regeneration of colliding booking IDs.
const idRetries = 3

// SubmitBookingRequest is a completed booking wizard. Prices are computed
// server-side from the selection.
type SubmitBookingRequest struct {
	PackageID   string
	AddOnIDs    []string
	Extras      catalog.Extras
	Contact     models.Contact
	Property    models.PropertyDetails
	Date        string
	TimeSlot    string
	PaymentType string
}

// BookingPage is one page of the admin booking list.
type BookingPage struct {
	Bookings   []*models.Booking `json:"bookings"`
	Pagination models.Pagination `json:"pagination"`
}

// BookingService defines booking operations.
type BookingService interface {
	Submit(ctx context.Context, req SubmitBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter, page models.Page) (*BookingPage, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Booking, error)
	Availability(ctx context.Context, date string) ([]models.Slot, error)
}

// BookingServiceImpl implements BookingService.
type BookingServiceImpl struct {
	repo       repository.BookingRepository
	generator  idgen.Generator
	maxPerSlot int
	now        func() time.Time
	log        *logger.Logger
}

// NewBookingService creates a new BookingService instance.
func NewBookingService(repo repository.BookingRepository, gen idgen.Generator, maxPerSlot int, log *logger.Logger) *BookingServiceImpl {
	if log == nil {
		log = logger.Nop()
	}
	return &BookingServiceImpl{
		repo:       repo,
		generator:  gen,
		maxPerSlot: maxPerSlot,
		now:        time.Now,
		log:        log.Component("bookings"),
	}
}

// WithClock replaces the time source. It returns s for chaining.
func (s *BookingServiceImpl) WithClock(now func() time.Time) *BookingServiceImpl {
	s.now = now
	return s
}

// Submit validates, prices and stores a booking with status pending.
func (s *BookingServiceImpl) Submit(ctx context.Context, req SubmitBookingRequest) (*models.Booking, error) {
	contact := req.Contact.Sanitize()
	property := req.Property.Sanitize()

	if err := joinValidation(contact.Validate(), property.Validate()); err != nil {
		return nil, err
	}

	now := s.now()
	if err := models.ValidateSchedule(req.Date, req.TimeSlot, now); err != nil {
		return nil, err
	}
	payment, err := models.ParsePaymentType(req.PaymentType)
	if err != nil {
		return nil, err
	}

	quote, err := catalog.Price(catalog.Selection{
		PackageID: req.PackageID,
		AddOnIDs:  req.AddOnIDs,
		Extras:    req.Extras,
	})
	if err != nil {
		return nil, err
	}

	id, err := idgen.Unique(s.generator, func(id string) (bool, error) {
		return s.repo.Exists(ctx, id)
	}, idRetries)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:          id,
		PackageID:   quote.Package.ID,
		PackageName: quote.Package.Name,
		Tier:        quote.Package.Tier,
		Category:    quote.Package.Category,
		Contact:     contact,
		Property:    property,
		AddOnIDs:    quote.AddOnIDs,
		AddOnsTotal: quote.AddOnsTotal,
		Extras:      req.Extras,
		ExtrasTotal: quote.ExtrasTotal,
		TotalPrice:  quote.Total,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		PaymentType: payment,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateIfSlotAvailable(ctx, booking, s.maxPerSlot); err != nil {
		return nil, err
	}

	metrics.RecordBookingCreated(string(booking.Tier))
	s.log.Info("booking created",
		"booking_id", booking.ID,
		"package_id", booking.PackageID,
		"date", booking.Date,
		"time_slot", booking.TimeSlot,
		"total", booking.TotalPrice,
	)
	return booking, nil
}

// Get retrieves a booking by ID.
func (s *BookingServiceImpl) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of bookings for the admin review table.
func (s *BookingServiceImpl) List(ctx context.Context, filter models.BookingFilter, page models.Page) (*BookingPage, error) {
	page = page.Normalize()
	bookings, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &BookingPage{
		Bookings:   bookings,
		Pagination: models.NewPagination(page, total),
	}, nil
}

// UpdateStatus moves a booking to status if the transition is allowed.
func (s *BookingServiceImpl) UpdateStatus(ctx context.Context, id, status string) (*models.Booking, error) {
	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, models.ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, next, s.now())
	if err != nil {
		return nil, err
	}

	metrics.RecordStatusChange(string(next))
	s.log.Info("booking status changed",
		"booking_id", id,
		"from", string(current.Status),
		"to", string(next),
	)
	return updated, nil
}

// Availability returns the slots of a date with their booking counts.
func (s *BookingServiceImpl) Availability(ctx context.Context, date string) ([]models.Slot, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountBySlot(ctx, date)
	if err != nil {
		return nil, err
	}
	return models.BuildSlots(counts, s.maxPerSlot), nil
}

// joinValidation merges validation errors into one. Other errors are
// returned as is.
func joinValidation(errs ...error) error {
	var merged models.ValidationError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		merged.Problems = append(merged.Problems, ve.Problems...)
	}
	if len(merged.Problems) == 0 {
		return nil
	}
	return &merged
}
