// Package cmserr defines the error categories the HTTP surface maps to
// status codes. Services wrap these sentinels with %w and handlers only
// inspect the category, never the text.
package cmserr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing request fields. Always client-caused.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks required server secrets or settings being absent.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstreamStorage marks a failed call to the external object store.
	// Generally logged rather than surfaced.
	ErrUpstreamStorage = errors.New("upstream storage error")
	// ErrConflict marks a single-row uniqueness violation inside a batch.
	// Rows carrying it are skipped, the batch is not aborted.
	ErrConflict = errors.New("conflict")
	// ErrCredential marks a rejected upload credential (bad signature,
	// expired, or replayed).
	ErrCredential = errors.New("invalid upload credential")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func Storagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamStorage, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the response status. Unrecognized errors are
// reported as a generic 500 so internals never leak.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the error text safe to show a caller. Validation,
// not-found and credential errors are surfaced verbatim with their field
// detail; everything else collapses to a generic message.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrCredential):
		return err.Error()
	case errors.Is(err, ErrConfiguration):
		return "server configuration error"
	default:
		return "internal server error"
	}
}
