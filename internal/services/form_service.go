package services

import (
	"github.com/topclass/bookingguard/internal/models"
	"github.com/topclass/bookingguard/pkg/logger"
)

// FormService checks individual wizard steps without storing them.
type FormService struct {
	log *logger.Logger
}

// NewFormService creates a new FormService.
func NewFormService(log *logger.Logger) *FormService {
	if log == nil {
		log = logger.Nop()
	}
	return &FormService{log: log.Component("forms")}
}

// ValidateContact sanitizes and validates a contact step, returning the
// sanitized value.
func (s *FormService) ValidateContact(c models.Contact) (models.Contact, error) {
	clean := c.Sanitize()
	if err := clean.Validate(); err != nil {
		s.log.Debug("contact step rejected", "error", err)
		return clean, err
	}
	return clean, nil
}

// ValidateProperty sanitizes and validates a property step.
func (s *FormService) ValidateProperty(d models.PropertyDetails) (models.PropertyDetails, error) {
	clean := d.Sanitize()
	if err := clean.Validate(); err != nil {
		s.log.Debug("property step rejected", "error", err)
		return clean, err
	}
	return clean, nil
}
