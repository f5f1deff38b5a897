package services

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/security"
)

// Photo limits.
const (
	MaxPhotoSize        = 5 << 20
	MaxPhotosPerRequest = 10
	DefaultTicketTTL    = 15 * time.Minute
)

// AllowedPhotoTypes are the accepted image content types.
var AllowedPhotoTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Photo errors
var (
	ErrNoPhotos             = errors.New("no photos supplied")
	ErrTooManyPhotos        = fmt.Errorf("at most %d photos may be uploaded at once", MaxPhotosPerRequest)
	ErrPhotoTooLarge        = errors.New("photo must be smaller than 5MB")
	ErrEmptyPhoto           = errors.New("photo is empty")
	ErrUnsupportedPhotoType = errors.New("photo type is not supported")
)

// PhotoMeta describes a photo the client wants to upload.
type PhotoMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// PhotoTicket authorizes one upload.
type PhotoTicket struct {
	Ticket      string    `json:"ticket"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PhotoService validates photo metadata and issues upload tickets.
type PhotoService struct {
	ttl time.Duration
	now func() time.Time
}

// NewPhotoService creates a PhotoService whose tickets live for ttl, or
// DefaultTicketTTL when ttl is not positive.
func NewPhotoService(ttl time.Duration) *PhotoService {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &PhotoService{ttl: ttl, now: time.Now}
}

// Validate checks the batch size and every photo without issuing anything.
func (s *PhotoService) Validate(photos []PhotoMeta) error {
	switch {
	case len(photos) == 0:
		return ErrNoPhotos
	case len(photos) > MaxPhotosPerRequest:
		return ErrTooManyPhotos
	}

	for _, p := range photos {
		if err := checkPhoto(p); err != nil {
			return err
		}
	}
	return nil
}

// Authorize checks every photo and returns one ticket per photo. Nothing is
// issued if any photo is rejected.
func (s *PhotoService) Authorize(photos []PhotoMeta) ([]PhotoTicket, error) {
	if err := s.Validate(photos); err != nil {
		return nil, err
	}

	expires := s.now().Add(s.ttl)
	tickets := make([]PhotoTicket, 0, len(photos))
	for _, p := range photos {
		tickets = append(tickets, PhotoTicket{
			Ticket:      uuid.NewString(),
			Name:        security.SanitizeInput(p.Name),
			ContentType: strings.ToLower(p.ContentType),
			Size:        p.Size,
			ExpiresAt:   expires,
		})
	}

	metrics.RecordPhotoTickets(len(tickets))
	return tickets, nil
}

func checkPhoto(p PhotoMeta) error {
	if !slices.Contains(AllowedPhotoTypes, strings.ToLower(p.ContentType)) {
		return fmt.Errorf("%w: %q", ErrUnsupportedPhotoType, p.ContentType)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: %q", ErrEmptyPhoto, p.Name)
	}
	if p.Size > MaxPhotoSize {
		return fmt.Errorf("%w: %q", ErrPhotoTooLarge, p.Name)
	}
	return nil
}
