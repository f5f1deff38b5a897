package handlers

import (
	"net/http"

	"github.com/topclass/bookingguard/internal/catalog"
)

// ExtraPrices lists the flag-priced extras.
type ExtraPrices struct {
	OccupiedHome    int `json:"is_occupied"`
	LightStaging    int `json:"light_staging"`
	ScentBooster    int `json:"scent_booster"`
	FinalDayTouchUp int `json:"final_day_touch_up"`
}

// CatalogResponse is the bookable catalog.
type CatalogResponse struct {
	Packages []catalog.Package `json:"packages"`
	AddOns   []catalog.AddOn   `json:"add_ons"`
	Extras   ExtraPrices       `json:"extras"`
}

// CatalogHandler serves GET /api/v1/catalog?category=.
func CatalogHandler(w http.ResponseWriter, r *http.Request) {
	var category catalog.Category
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, err := catalog.ParseCategory(c)
		if err != nil {
			writeError(w, err)
			return
		}
		category = parsed
	}

	writeJSON(w, http.StatusOK, CatalogResponse{
		Packages: catalog.Packages(category),
		AddOns:   catalog.AddOns(),
		Extras: ExtraPrices{
			OccupiedHome:    catalog.OccupiedHomePrice,
			LightStaging:    catalog.LightStagingPrice,
			ScentBooster:    catalog.ScentBoosterPrice,
			FinalDayTouchUp: catalog.FinalDayTouchUpPrice,
		},
	})
}
