package moderation

import (
	"errors"
	"net/http"
)

// Domain errors for moderation engine operations.
var (
	ErrUnknownSubmission = errors.New("submission not found")
	ErrNoModalities      = errors.New("submission has no classifiable content")
	ErrInvalidVerdict    = errors.New("invalid verdict")
)

// MapHTTPStatus maps moderation domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnknownSubmission) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrNoModalities) || errors.Is(err, ErrInvalidVerdict) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
