package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the whole application. Handlers translate these into
// HTTP status codes; nothing below the handler layer knows about HTTP.
var (
	// ErrValidation means the caller supplied missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both "does not exist" and "not owned by the caller".
	// The two cases are deliberately indistinguishable so that ownership of a
	// record is never leaked to other users.
	ErrNotFound = errors.New("not found")

	// ErrLinkExpired means the link exists but is past its expiration date.
	ErrLinkExpired = errors.New("link expired")

	// ErrAuth means the request carried no usable credential.
	ErrAuth = errors.New("authentication failed")

	// ErrStoreUnavailable is a transient persistence failure. Safe for the
	// caller to retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateKey signals a uniqueness violation on insert. Internal:
	// the link service retries short id generation on it, the user service
	// turns it into a validation error.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Validationf builds an ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Kind returns a stable machine-readable identifier for err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLinkExpired):
		return "link_expired"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	default:
		return "store_unavailable"
	}
}

// HTTPStatus maps err onto the status code the boundary should answer with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLinkExpired):
		return http.StatusGone
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human-readable text that may cross the boundary.
// Store failures wrap driver errors, which must not leak, so those get a
// fixed message.
func Message(err error) string {
	if errors.Is(err, ErrStoreUnavailable) || Kind(err) == "store_unavailable" {
		return "temporary storage failure, please retry"
	}
	return err.Error()
}
