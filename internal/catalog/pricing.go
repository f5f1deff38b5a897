package catalog

// Extras are the flag-priced services chosen on the add-ons step.
type Extras struct {
	OccupiedHome    bool `json:"is_occupied"`
	LightStaging    bool `json:"light_staging"`
	ScentBooster    bool `json:"scent_booster"`
	FinalDayTouchUp bool `json:"final_day_touch_up"`
}

// Total returns the price of the selected extras.
func (e Extras) Total() int {
	total := 0
	if e.OccupiedHome {
		total += OccupiedHomePrice
	}
	if e.LightStaging {
		total += LightStagingPrice
	}
	if e.ScentBooster {
		total += ScentBoosterPrice
	}
	if e.FinalDayTouchUp {
		total += FinalDayTouchUpPrice
	}
	return total
}

// Selection is what a customer picked in the wizard.
type Selection struct {
	PackageID string
	AddOnIDs  []string
	Extras    Extras
}

// Quote is a priced selection.
type Quote struct {
	Package     Package  `json:"package"`
	AddOnIDs    []string `json:"add_on_ids"`
	AddOnsTotal int      `json:"add_ons_total"`
	ExtrasTotal int      `json:"extras_total"`
	Total       int      `json:"total"`
}

// Price computes the quote for a selection. Duplicate add-ons are charged
// once and returned in first-seen order.
func Price(sel Selection) (Quote, error) {
	pkg, err := LookupPackage(sel.PackageID)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Package: pkg, AddOnIDs: make([]string, 0, len(sel.AddOnIDs))}
	seen := make(map[string]bool, len(sel.AddOnIDs))
	for _, id := range sel.AddOnIDs {
		if seen[id] {
			continue
		}
		addOn, err := LookupAddOn(id)
		if err != nil {
			return Quote{}, err
		}
		seen[id] = true
		q.AddOnIDs = append(q.AddOnIDs, id)
		q.AddOnsTotal += addOn.Price
	}

	q.ExtrasTotal = sel.Extras.Total()
	q.Total = pkg.MinPrice + q.AddOnsTotal + q.ExtrasTotal
	return q, nil
}
