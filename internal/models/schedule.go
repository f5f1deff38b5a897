package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// Schedule errors
var (
	ErrInvalidDate = errors.New("invalid booking date")
	ErrPastDate    = errors.New("booking date is in the past")
	ErrInvalidSlot = errors.New("invalid time slot")
	ErrSlotFull    = errors.New("time slot is fully booked")
)

// TimeSlots are the bookable start times of a day.
var TimeSlots = []string{"09:00", "11:00", "13:00", "15:00"}

// Slot is the availability of one time slot.
type Slot struct {
	Time         string `json:"time"`
	Available    bool   `json:"available"`
	BookingCount int    `json:"booking_count"`
	MaxBookings  int    `json:"max_bookings"`
}

// ParseDate parses a booking date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ValidateSchedule checks that date is today or later (relative to now, in
// now's location) and that slot is a bookable time.
func ValidateSchedule(date, slot string, now time.Time) error {
	d, err := ParseDate(date)
	if err != nil {
		return err
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return ErrPastDate
	}
	if !slices.Contains(TimeSlots, slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// BuildSlots returns the availability of every slot given booking counts.
func BuildSlots(counts map[string]int, maxPerSlot int) []Slot {
	slots := make([]Slot, 0, len(TimeSlots))
	for _, t := range TimeSlots {
		n := counts[t]
		slots = append(slots, Slot{
			Time:         t,
			Available:    n < maxPerSlot,
			BookingCount: n,
			MaxBookings:  maxPerSlot,
		})
	}
	return slots
}
