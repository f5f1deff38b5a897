package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/topclass/bookingguard/internal/catalog"
	"github.com/topclass/bookingguard/internal/idgen"
	"github.com/topclass/bookingguard/internal/models"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/internal/repository"
	"github.com/topclass/bookingguard/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

// writeError maps err and writes it.
func writeError(w http.ResponseWriter, err error) {
	status, resp := mapErrorToResponse(err)
	writeJSON(w, status, resp)
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{models.ErrBookingNotFound, http.StatusNotFound, "NOT_FOUND"},
	{models.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{models.ErrPastDate, http.StatusBadRequest, "PAST_DATE"},
	{models.ErrInvalidSlot, http.StatusBadRequest, "INVALID_TIME_SLOT"},
	{models.ErrSlotFull, http.StatusConflict, "SLOT_FULL"},
	{models.ErrInvalidPayment, http.StatusBadRequest, "INVALID_PAYMENT_TYPE"},
	{models.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{models.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{repository.ErrStatusConflict, http.StatusConflict, "STATUS_CONFLICT"},
	{catalog.ErrUnknownPackage, http.StatusBadRequest, "UNKNOWN_PACKAGE"},
	{catalog.ErrUnknownAddOn, http.StatusBadRequest, "UNKNOWN_ADD_ON"},
	{catalog.ErrUnknownCategory, http.StatusBadRequest, "UNKNOWN_CATEGORY"},
	{ratelimit.ErrUnknownProfile, http.StatusNotFound, "UNKNOWN_PROFILE"},
	{services.ErrNoPhotos, http.StatusBadRequest, "NO_PHOTOS"},
	{services.ErrTooManyPhotos, http.StatusBadRequest, "TOO_MANY_PHOTOS"},
	{services.ErrPhotoTooLarge, http.StatusBadRequest, "PHOTO_TOO_LARGE"},
	{services.ErrEmptyPhoto, http.StatusBadRequest, "EMPTY_PHOTO"},
	{services.ErrUnsupportedPhotoType, http.StatusBadRequest, "UNSUPPORTED_PHOTO_TYPE"},
}

// mapErrorToResponse maps service errors to HTTP status codes and error responses.
func mapErrorToResponse(err error) (int, ErrorResponse) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_FAILED",
			Details: ve.Problems,
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{Error: err.Error(), Code: m.code}
		}
	}

	if errors.Is(err, idgen.ErrMaxRetriesExceeded) {
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "service temporarily unavailable",
			Code:  "RETRY_EXCEEDED",
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "INTERNAL_ERROR",
	}
}
