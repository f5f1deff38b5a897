package ratelimit

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Profile names an action category with its own limiter.
type Profile string

// Profiles used by the booking flows.
const (
	ProfileBooking Profile = "booking"
	ProfileForm    Profile = "form"
	ProfilePhotos  Profile = "photos"
)

// ErrUnknownProfile is returned when a profile has no limiter.
var ErrUnknownProfile = errors.New("unknown rate limit profile")

// ParseProfile converts a string to a known Profile.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(s); p {
	case ProfileBooking, ProfileForm, ProfilePhotos:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
}

// BookingConfig allows 5 booking attempts per 15 minutes.
func BookingConfig() Config {
	return Config{
		MaxRequests:  5,
		Window:       15 * time.Minute,
		KeyGenerator: PrefixKey("booking:"),
	}
}

// FormSubmissionConfig allows 10 form submissions per 5 minutes.
func FormSubmissionConfig() Config {
	return Config{
		MaxRequests:  10,
		Window:       5 * time.Minute,
		KeyGenerator: PrefixKey("form:"),
	}
}

// PhotoUploadConfig allows 20 photo uploads per hour.
func PhotoUploadConfig() Config {
	return Config{
		MaxRequests:  20,
		Window:       time.Hour,
		KeyGenerator: PrefixKey("photos:"),
	}
}

// DefaultProfiles returns the configuration of every known profile.
func DefaultProfiles() map[Profile]Config {
	return map[Profile]Config{
		ProfileBooking: BookingConfig(),
		ProfileForm:    FormSubmissionConfig(),
		ProfilePhotos:  PhotoUploadConfig(),
	}
}

// Set holds one independent limiter per profile.
type Set struct {
	limiters map[Profile]Limiter
}

// NewSet wraps already constructed limiters.
func NewSet(limiters map[Profile]Limiter) *Set {
	s := &Set{limiters: make(map[Profile]Limiter, len(limiters))}
	for p, l := range limiters {
		s.limiters[p] = l
	}
	return s
}

// NewMemorySet builds an in-memory limiter per profile.
func NewMemorySet(profiles map[Profile]Config, opts ...Option) (*Set, error) {
	limiters := make(map[Profile]Limiter, len(profiles))
	for p, cfg := range profiles {
		l, err := NewMemoryLimiter(cfg, opts...)
		if err != nil {
			closeAll(limiters)
			return nil, fmt.Errorf("profile %s: %w", p, err)
		}
		limiters[p] = l
	}
	return &Set{limiters: limiters}, nil
}

// NewRedisSet builds a Redis-backed limiter per profile sharing one client.
func NewRedisSet(client *redis.Client, profiles map[Profile]Config, opts ...Option) (*Set, error) {
	limiters := make(map[Profile]Limiter, len(profiles))
	for p, cfg := range profiles {
		l, err := NewRedisLimiter(client, cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p, err)
		}
		limiters[p] = l
	}
	return &Set{limiters: limiters}, nil
}

// Get returns the limiter for a profile.
func (s *Set) Get(p Profile) (Limiter, bool) {
	l, ok := s.limiters[p]
	return l, ok
}

// MustGet returns the limiter for a profile or panics. Use during wiring only.
func (s *Set) MustGet(p Profile) Limiter {
	l, ok := s.limiters[p]
	if !ok {
		panic(fmt.Sprintf("ratelimit: no limiter for profile %q", p))
	}
	return l
}

// Profiles returns the configured profiles in sorted order.
func (s *Set) Profiles() []Profile {
	out := make([]Profile, 0, len(s.limiters))
	for p := range s.limiters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close closes every limiter and returns the first error.
func (s *Set) Close() error {
	return closeAll(s.limiters)
}

func closeAll(limiters map[Profile]Limiter) error {
	var firstErr error
	for _, l := range limiters {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
