package dedupe

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for duplicate detection and merging.
var (
	ErrNotFound         = errors.New("person not found")
	ErrInvalidPair      = errors.New("keep and merge ids must differ")
	ErrStoreUnavailable = errors.New("person store unavailable")
	ErrMergeFailed      = errors.New("merge failed")
	ErrInvalidRequest   = errors.New("invalid request")
)

// User-facing messages. Internal detail is logged, never returned to clients.
const (
	MsgScanFailed  = "could not load duplicates, try again"
	MsgMergeFailed = "could not merge contacts"
)

// Merge steps reported by StepError.
const (
	StepReconcile = "reconcile"
	StepRelink    = "relink"
	StepTags      = "tags"
	StepProfiles  = "social_profiles"
	StepArchive   = "archive"
	StepDelete    = "delete"
	StepCommit    = "commit"
)

// StepError identifies the merge step that failed. It is always surfaced wrapped
// in ErrMergeFailed; the transaction has been rolled back by the time a caller sees it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepFailed(step string, err error) error {
	return fmt.Errorf("%w: %w", ErrMergeFailed, &StepError{Step: step, Err: err})
}

// MapHTTPStatus maps dedupe domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPair), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
