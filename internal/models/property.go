package models

import (
	"slices"

	"github.com/topclass/bookingguard/internal/security"
)

var (
	propertyTypes = []string{"house", "apartment", "condo", "townhouse", "office", "commercial"}
	serviceTypes  = []string{"full", "partial"}
	conditions    = []string{"excellent", "good", "fair", "poor"}
	listingTypes  = []string{"occupied", "vacant", "staging"}
	urgencies     = []string{"standard", "rush", "same-day"}
	stagingLevels = []string{"none", "light", "full"}
	partnerTiers  = []string{"tier1", "tier2", "tier3"}
)

// PropertyDetails is the property step of the wizard.
type PropertyDetails struct {
	Bedrooms        int      `json:"bedrooms"`
	Bathrooms       float64  `json:"bathrooms"`
	SquareFootage   int      `json:"square_footage"`
	PropertyType    string   `json:"property_type"`
	ServiceType     string   `json:"service_type"`
	Condition       string   `json:"condition"`
	Floors          int      `json:"floors"`
	Pets            bool     `json:"pets"`
	Children        bool     `json:"children"`
	SpecialAreas    []string `json:"special_areas,omitempty"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`

	// Tier-specific
	ListingType     string `json:"listing_type,omitempty"`
	Urgency         string `json:"urgency,omitempty"`
	StagingLevel    string `json:"staging_level,omitempty"`
	PartnershipTier string `json:"partnership_tier,omitempty"`
}

// Sanitize returns a copy with free-text fields sanitized.
func (d PropertyDetails) Sanitize() PropertyDetails {
	out := d
	out.AdditionalNotes = security.SanitizeInput(d.AdditionalNotes)
	if d.SpecialAreas != nil {
		out.SpecialAreas = make([]string, 0, len(d.SpecialAreas))
		for _, a := range d.SpecialAreas {
			if a = security.SanitizeInput(a); a != "" {
				out.SpecialAreas = append(out.SpecialAreas, a)
			}
		}
	}
	return out
}

// Validate checks the property details.
func (d PropertyDetails) Validate() error {
	var p problems

	if d.Bedrooms < 0 {
		p.add("Bedrooms must be 0 or more")
	}
	if d.Bathrooms < 0 {
		p.add("Bathrooms must be 0 or more")
	}
	if d.SquareFootage < 100 {
		p.add("Square footage must be at least 100 sq ft")
	}
	if d.Floors < 1 {
		p.add("Must have at least 1 floor")
	}
	if !slices.Contains(propertyTypes, d.PropertyType) {
		p.add("Unknown property type")
	}
	if !slices.Contains(serviceTypes, d.ServiceType) {
		p.add("Service type must be full or partial")
	}
	if !slices.Contains(conditions, d.Condition) {
		p.add("Unknown property condition")
	}
	checkOptional(&p, d.ListingType, listingTypes, "Unknown listing type")
	checkOptional(&p, d.Urgency, urgencies, "Unknown urgency")
	checkOptional(&p, d.StagingLevel, stagingLevels, "Unknown staging level")
	checkOptional(&p, d.PartnershipTier, partnerTiers, "Unknown partnership tier")

	return p.err()
}

func checkOptional(p *problems, value string, allowed []string, msg string) {
	if value != "" && !slices.Contains(allowed, value) {
		p.add(msg)
	}
}
