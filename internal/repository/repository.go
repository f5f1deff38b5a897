// Package repository handles booking persistence.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/topclass/bookingguard/internal/models"
)

// Repository errors
var (
	ErrDuplicateBooking = errors.New("booking already exists")
	ErrStatusConflict   = errors.New("booking status changed concurrently")
)

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	// Create stores a new booking.
	Create(ctx context.Context, b *models.Booking) error

	// CreateIfSlotAvailable stores a new booking only while its date and
	// time slot hold fewer than maxPerSlot non-cancelled bookings, returning
	// models.ErrSlotFull otherwise. The check and the insert are atomic.
	CreateIfSlotAvailable(ctx context.Context, b *models.Booking, maxPerSlot int) error

	// GetByID retrieves a booking. Missing bookings return models.ErrBookingNotFound.
	GetByID(ctx context.Context, id string) (*models.Booking, error)

	// Exists reports whether a booking ID is taken.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns one page of bookings matching filter, newest first, and
	// the total number of matches.
	List(ctx context.Context, filter models.BookingFilter, page models.Page) ([]*models.Booking, int, error)

	// UpdateStatus moves a booking from one status to another. It returns
	// ErrStatusConflict if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to models.Status, at time.Time) (*models.Booking, error)

	// CountBySlot returns the number of non-cancelled bookings per time slot
	// on date.
	CountBySlot(ctx context.Context, date string) (map[string]int, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}
