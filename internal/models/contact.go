package models

import (
	"github.com/topclass/bookingguard/internal/security"
)

// Contact is the customer contact step of the wizard.
type Contact struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	ZipCode             string `json:"zip_code"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	PreferredContact    string `json:"preferred_contact"`
}

// Sanitize returns a copy with every free-text field sanitized.
func (c Contact) Sanitize() Contact {
	return Contact{
		FirstName:           security.SanitizeInput(c.FirstName),
		LastName:            security.SanitizeInput(c.LastName),
		Email:               security.SanitizeInput(c.Email),
		Phone:               security.SanitizeInput(c.Phone),
		Address:             security.SanitizeInput(c.Address),
		City:                security.SanitizeInput(c.City),
		State:               security.SanitizeInput(c.State),
		ZipCode:             security.SanitizeInput(c.ZipCode),
		SpecialInstructions: security.SanitizeInput(c.SpecialInstructions),
		PreferredContact:    c.PreferredContact,
	}
}

// Validate checks a sanitized contact. Suspicious-activity warnings count
// as problems.
func (c Contact) Validate() error {
	var p problems

	if c.FirstName == "" {
		p.add("First name is required")
	}
	if c.LastName == "" {
		p.add("Last name is required")
	}
	if c.Email == "" {
		p.add("Email is required")
	} else if !security.ValidateEmail(c.Email) {
		p.add("Please enter a valid email address")
	}
	if c.Phone == "" {
		p.add("Phone number is required")
	} else if !security.ValidatePhone(c.Phone) {
		p.add("Please enter a valid phone number")
	}
	if c.Address == "" {
		p.add("Address is required")
	}
	if c.City == "" {
		p.add("City is required")
	}
	if c.State == "" {
		p.add("State is required")
	}
	if c.ZipCode == "" {
		p.add("ZIP code is required")
	} else if !security.ValidateZipCode(c.ZipCode) {
		p.add("Please enter a valid ZIP code")
	}
	switch c.PreferredContact {
	case "", "email", "phone", "text":
	default:
		p.add("Preferred contact must be email, phone or text")
	}

	for _, w := range security.DetectSuspiciousActivity(security.Signals{
		Email:               c.Email,
		Phone:               c.Phone,
		Address:             c.Address,
		SpecialInstructions: c.SpecialInstructions,
	}) {
		p.add(w)
	}

	return p.err()
}
