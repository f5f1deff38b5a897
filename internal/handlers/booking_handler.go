package handlers

import (
	"net/http"
	"strconv"

	"github.com/topclass/bookingguard/internal/catalog"
	"github.com/topclass/bookingguard/internal/models"
	"github.com/topclass/bookingguard/internal/services"
)

// CreateBookingRequest is the body of POST /api/v1/bookings. Client-side
// totals are not accepted; the server prices the selection.
type CreateBookingRequest struct {
	PackageID   string                 `json:"package_id"`
	AddOnIDs    []string               `json:"add_on_ids"`
	Extras      catalog.Extras         `json:"extras"`
	Contact     models.Contact         `json:"contact"`
	Property    models.PropertyDetails `json:"property"`
	Date        string                 `json:"date"`
	TimeSlot    string                 `json:"time_slot"`
	PaymentType string                 `json:"payment_type"`
}

// UpdateStatusRequest is the body of PATCH /api/v1/bookings/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AvailabilityResponse lists the slots of one date.
type AvailabilityResponse struct {
	Date  string        `json:"date"`
	Slots []models.Slot `json:"slots"`
}

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	service services.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(svc services.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.service.Submit(r.Context(), services.SubmitBookingRequest{
		PackageID:   req.PackageID,
		AddOnIDs:    req.AddOnIDs,
		Extras:      req.Extras,
		Contact:     req.Contact,
		Property:    req.Property,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		PaymentType: req.PaymentType,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// List handles GET /api/v1/bookings?status=&tier=&search=&date=&page=&limit=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter models.BookingFilter
	if s := q.Get("status"); s != "" && s != "all" {
		status, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Status = status
	}
	if tier := q.Get("tier"); tier != "" && tier != "all" {
		filter.Tier = catalog.Tier(tier)
	}
	filter.Search = q.Get("search")
	filter.Date = q.Get("date")

	page := models.Page{
		Number: queryInt(q.Get("page")),
		Limit:  queryInt(q.Get("limit")),
	}

	result, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// UpdateStatus handles PATCH /api/v1/bookings/{id}/status.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Availability handles GET /api/v1/availability/{date}.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	slots, err := h.service.Availability(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Date: date, Slots: slots})
}

// queryInt parses a positive integer, returning 0 when absent or invalid.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
