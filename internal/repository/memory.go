package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/topclass/bookingguard/internal/models"
)

// MemoryBookingRepository implements BookingRepository in process memory.
// Stored bookings are copied in and out so callers cannot mutate them.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
}

// NewMemoryBookingRepository creates an empty repository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]*models.Booking)}
}

func clone(b *models.Booking) *models.Booking {
	c := *b
	c.AddOnIDs = slices.Clone(b.AddOnIDs)
	c.Property.SpecialAreas = slices.Clone(b.Property.SpecialAreas)
	return &c
}

// Create stores a new booking.
func (r *MemoryBookingRepository) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; ok {
		return ErrDuplicateBooking
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

// CreateIfSlotAvailable stores b unless its slot is full. The count and the
// insert happen under one write lock.
func (r *MemoryBookingRepository) CreateIfSlotAvailable(_ context.Context, b *models.Booking, maxPerSlot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; ok {
		return ErrDuplicateBooking
	}
	taken := 0
	for _, existing := range r.bookings {
		if existing.Date == b.Date && existing.TimeSlot == b.TimeSlot && existing.Status != models.StatusCancelled {
			taken++
		}
	}
	if taken >= maxPerSlot {
		return models.ErrSlotFull
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

// GetByID retrieves a booking.
func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return clone(b), nil
}

// Exists reports whether a booking ID is taken.
func (r *MemoryBookingRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bookings[id]
	return ok, nil
}

// List returns one page of matching bookings, newest first.
func (r *MemoryBookingRepository) List(_ context.Context, filter models.BookingFilter, page models.Page) ([]*models.Booking, int, error) {
	page = page.Normalize()

	r.mu.RLock()
	matched := make([]*models.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if b.Matches(filter) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	out := make([]*models.Booking, 0, end-start)
	for _, b := range matched[start:end] {
		out = append(out, clone(b))
	}
	r.mu.RUnlock()

	return out, total, nil
}

// UpdateStatus moves a booking from one status to another.
func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, id string, from, to models.Status, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = at
	return clone(b), nil
}

// CountBySlot returns non-cancelled bookings per slot on date.
func (r *MemoryBookingRepository) CountBySlot(_ context.Context, date string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, b := range r.bookings {
		if b.Date == date && b.Status != models.StatusCancelled {
			counts[b.TimeSlot]++
		}
	}
	return counts, nil
}

// HealthCheck always succeeds.
func (r *MemoryBookingRepository) HealthCheck(context.Context) error {
	return nil
}
