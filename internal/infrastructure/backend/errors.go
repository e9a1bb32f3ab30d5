package backend

import (
	"errors"
	"net/http"

	"github.com/storefront/backend/internal/domain/shared"
)

// translate turns transport and HTTP failures into domain errors.
// The backend's message is kept for client errors; server failures
// become UPSTREAM_ERROR so callers never see raw upstream text.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		var base *shared.DomainError
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			base = shared.ErrInvalidInput
		case http.StatusUnauthorized:
			base = shared.ErrUnauthorized
		case http.StatusForbidden:
			base = shared.ErrForbidden
		case http.StatusNotFound:
			base = shared.ErrNotFound
		case http.StatusConflict:
			base = shared.ErrConflict
		default:
			return shared.ErrUpstream.WithCause(err)
		}
		de := base.WithCause(err)
		if apiErr.Message != "" {
			de.Message = apiErr.Message
		}
		return de
	}

	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrInvalidResponse) {
		return shared.ErrUpstream.WithCause(err)
	}
	return err
}

// IsStatus reports whether err carries an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
