package handlers

import (
	"net/http"

	"github.com/topclass/bookingguard/internal/models"
	"github.com/topclass/bookingguard/internal/services"
)

// ContactStepResponse echoes a validated contact step.
type ContactStepResponse struct {
	Valid   bool           `json:"valid"`
	Contact models.Contact `json:"contact"`
}

// PropertyStepResponse echoes a validated property step.
type PropertyStepResponse struct {
	Valid    bool                   `json:"valid"`
	Property models.PropertyDetails `json:"property"`
}

// FormHandler handles wizard step validation endpoints.
type FormHandler struct {
	service *services.FormService
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(svc *services.FormService) *FormHandler {
	return &FormHandler{service: svc}
}

// Contact handles POST /api/v1/forms/contact.
func (h *FormHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if !decodeJSON(w, r, &c) {
		return
	}
	clean, err := h.service.ValidateContact(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ContactStepResponse{Valid: true, Contact: clean})
}

// Property handles POST /api/v1/forms/property.
func (h *FormHandler) Property(w http.ResponseWriter, r *http.Request) {
	var d models.PropertyDetails
	if !decodeJSON(w, r, &d) {
		return
	}
	clean, err := h.service.ValidateProperty(d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PropertyStepResponse{Valid: true, Property: clean})
}
