package dispositions

import (
	"errors"
	"net/http"
)

// Domain errors for disposition operations.
var (
	ErrNotFound        = errors.New("disposition not found")
	ErrDuplicate       = errors.New("disposition already exists")
	ErrConflict        = errors.New("disposition already resolved")
	ErrInvalidDecision = errors.New("decision must be APPROVE or REJECT")
	ErrMissingReviewer = errors.New("reviewer_id required")
)

// MapHTTPStatus maps disposition domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidDecision) || errors.Is(err, ErrMissingReviewer) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
