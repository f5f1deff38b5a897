// Package catalog holds the cleaning packages, add-ons and extras offered
// by the booking wizard, and prices a selection of them.
package catalog

import (
	"errors"
	"fmt"
)

// Tier is the service level of a package.
type Tier string

// Package tiers.
const (
	TierBasic     Tier = "Basic"
	TierConcierge Tier = "Concierge"
	TierPartner   Tier = "Partner"
)

// Category groups packages on the first wizard step.
type Category string

// Package categories.
const (
	CategoryInstant   Category = "Instant"
	CategoryConcierge Category = "Concierge"
	CategoryPartner   Category = "Partner"
)

// Catalog errors
var (
	ErrUnknownPackage  = errors.New("unknown package")
	ErrUnknownAddOn    = errors.New("unknown add-on")
	ErrUnknownCategory = errors.New("unknown category")
)

// Package is a bookable cleaning package. Prices are whole US dollars.
type Package struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Tier         Tier     `json:"tier"`
	Category     Category `json:"category"`
	TimeEstimate string   `json:"time_estimate"`
	MinPrice     int      `json:"min_price"`
}

// AddOn is an optional priced service.
type AddOn struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Extra flag prices.
const (
	OccupiedHomePrice    = 89
	LightStagingPrice    = 139
	ScentBoosterPrice    = 35
	FinalDayTouchUpPrice = 79
)

var packages = []Package{
	{"instant-impact-refresh", "Instant Impact Refresh", TierBasic, CategoryInstant, "2–3 hours, 1–2 cleaners", 199},
	{"instant-impact-final-touch", "Instant Impact Final Touch", TierBasic, CategoryInstant, "3–4 hours, 1–2 cleaners", 249},
	{"instant-impact-ready-clean", "Instant Impact Ready Clean", TierBasic, CategoryInstant, "4–6 hours, 2 cleaners", 349},
	{"instant-impact-showcase", "Instant Impact Showcase", TierBasic, CategoryInstant, "6+ hours, 2–3 cleaners", 499},
	{"show-ready-concierge", "Show-Ready Concierge", TierConcierge, CategoryConcierge, "Varies", 499},
	{"move-out-concierge", "Move-Out Concierge", TierConcierge, CategoryConcierge, "Varies", 599},
	{"showcase-concierge", "Showcase Concierge", TierConcierge, CategoryConcierge, "Varies", 799},
	{"tier-1-powered-partner", "Tier 1 – Powered Partner", TierPartner, CategoryPartner, "Up to 2 full-service cleanings per month", 398},
	{"tier-2-signature-affiliate-partner", "Tier 2 – Signature Affiliate Partner", TierPartner, CategoryPartner, "Up to 4 full-service cleanings per month", 499},
}

var addOns = []AddOn{
	{"refrigerator-clean", "Fridge Clean", 35},
	{"oven-range-clean", "Oven Clean", 45},
	{"cabinet-wipe-down", "Cabinet Wipe", 45},
	{"pantry-closet-clean", "Pantry Clean", 50},
	{"baseboard-trim-detailing", "Baseboard Detail", 60},
	{"interior-window-detailing", "Window Detail", 150},
	{"exterior-window-polish", "Window Polish", 200},
	{"blind-shutter-dusting", "Blind Dusting", 30},
	{"garage-clean-out", "Garage Clean", 200},
	{"patio-deck-wash", "Patio Wash", 150},
	{"carpet-steam-cleaning", "Carpet Clean", 160},
	{"tile-grout-cleaning", "Tile & Grout", 250},
	{"upholstery-cleaning", "Upholstery Clean", 174},
	{"deodorizing", "Deodorizing Service", 350},
	{"front-entry-refresh", "Entry Refresh", 80},
	{"light-fixture-cleaning", "Light Clean", 30},
	{"attic-basement-sweep", "Attic Sweep", 100},
	{"pressure-washing", "Pressure Wash", 150},
	{"pool-deck-cleaning", "Pool Deck", 150},
	{"trash-bin-wash", "Trash Wash", 20},
}

var (
	packagesByID = indexPackages(packages)
	addOnsByID   = indexAddOns(addOns)
)

func indexPackages(list []Package) map[string]Package {
	m := make(map[string]Package, len(list))
	for _, p := range list {
		m[p.ID] = p
	}
	return m
}

func indexAddOns(list []AddOn) map[string]AddOn {
	m := make(map[string]AddOn, len(list))
	for _, a := range list {
		m[a.ID] = a
	}
	return m
}

// ParseCategory converts a string to a known Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryInstant, CategoryConcierge, CategoryPartner:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Packages returns the packages in a category, or every package when
// category is empty.
func Packages(category Category) []Package {
	out := make([]Package, 0, len(packages))
	for _, p := range packages {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// AddOns returns every add-on.
func AddOns() []AddOn {
	return append([]AddOn(nil), addOns...)
}

// LookupPackage returns the package with the given id.
func LookupPackage(id string) (Package, error) {
	p, ok := packagesByID[id]
	if !ok {
		return Package{}, fmt.Errorf("%w: %s", ErrUnknownPackage, id)
	}
	return p, nil
}

// LookupAddOn returns the add-on with the given id.
func LookupAddOn(id string) (AddOn, error) {
	a, ok := addOnsByID[id]
	if !ok {
		return AddOn{}, fmt.Errorf("%w: %s", ErrUnknownAddOn, id)
	}
	return a, nil
}
