// Package models contains domain models and entities.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/topclass/bookingguard/internal/catalog"
)

// Status is the lifecycle state of a booking.
type Status string

// Booking statuses.
const (
	StatusPending     Status = "pending"
	StatusPaidFailed  Status = "paidFailed"
	StatusPaidSuccess Status = "paidSuccess"
	StatusCancelled   Status = "cancelled"
)

// PaymentType is how the customer chose to pay.
type PaymentType string

// Payment types.
const (
	PaymentFull    PaymentType = "full"
	PaymentDeposit PaymentType = "deposit"
)

// Domain errors
var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidPayment    = errors.New("invalid payment type")
	ErrValidation        = errors.New("validation failed")
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusPending:     {StatusPaidSuccess, StatusPaidFailed, StatusCancelled},
	StatusPaidFailed:  {StatusPending, StatusCancelled},
	StatusPaidSuccess: {StatusCancelled},
	StatusCancelled:   nil,
}

// ParseStatus converts a string to a known Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// CanTransitionTo reports whether a booking may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParsePaymentType converts a string to a known PaymentType.
func ParsePaymentType(s string) (PaymentType, error) {
	switch p := PaymentType(s); p {
	case PaymentFull, PaymentDeposit:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPayment, s)
	}
}

// ValidationError collects every problem found in a submission.
type ValidationError struct {
	Problems []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// problems accumulates validation messages.
type problems []string

func (p *problems) add(msg string) { *p = append(*p, msg) }

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: []string(p)}
}

// Booking is a submitted booking as shown in the admin review table.
type Booking struct {
	ID          string           `json:"booking_id"`
	PackageID   string           `json:"package_id"`
	PackageName string           `json:"package_name"`
	Tier        catalog.Tier     `json:"tier"`
	Category    catalog.Category `json:"category"`
	Contact     Contact          `json:"contact"`
	Property    PropertyDetails  `json:"property"`
	AddOnIDs    []string         `json:"add_on_ids"`
	AddOnsTotal int              `json:"add_ons_total"`
	Extras      catalog.Extras   `json:"extras"`
	ExtrasTotal int              `json:"extras_total"`
	TotalPrice  int              `json:"total_price"`
	Date        string           `json:"date"`
	TimeSlot    string           `json:"time_slot"`
	PaymentType PaymentType      `json:"payment_type"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Matches reports whether the booking passes the filter.
func (b *Booking) Matches(f BookingFilter) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Tier != "" && b.Tier != f.Tier {
		return false
	}
	if f.Date != "" && b.Date != f.Date {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(strings.Join([]string{
			b.ID, b.Contact.FirstName, b.Contact.LastName, b.Contact.Email,
			b.Contact.Phone, b.Contact.City, b.PackageName,
		}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// BookingFilter narrows the admin booking list. Zero fields match all.
type BookingFilter struct {
	Status Status
	Tier   catalog.Tier
	Search string
	Date   string
}

// Page limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into the supported range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the number of items before the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Pagination describes a returned page.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// NewPagination computes pagination metadata for a page of total items.
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		CurrentPage:  p.Number,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: p.Limit,
	}
}
