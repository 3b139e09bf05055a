package submissions

import (
	"errors"
	"net/http"
)

// Domain errors for submission operations.
var (
	ErrNotFound     = errors.New("submission not found")
	ErrDuplicate    = errors.New("submission already exists")
	ErrEmptyContent = errors.New("submission requires text or an image")
	ErrInvalid      = errors.New("invalid submission")
	ErrUnknownMedia = errors.New("image_key does not reference uploaded media")
)

// MapHTTPStatus maps submission domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyContent) || errors.Is(err, ErrInvalid) || errors.Is(err, ErrUnknownMedia) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
