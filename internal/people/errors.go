package people

import (
	"errors"
	"net/http"
)

// Domain errors for person operations.
var (
	ErrNotFound    = errors.New("person not found")
	ErrDuplicate   = errors.New("person already exists")
	ErrInvalidID   = errors.New("invalid identifier")
	ErrUnavailable = errors.New("person store unavailable")
)

// MapHTTPStatus maps person domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
