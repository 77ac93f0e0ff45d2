package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when the Engine was not built by Builder.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrNotFound is returned when the referenced user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount is returned when the account is deactivated.
	ErrInactiveAccount = errors.New("inactive account")
	// ErrCSRF is returned for a missing, expired, mismatched or reused token.
	// The underlying csrf error stays reachable with errors.Is.
	ErrCSRF = errors.New("csrf token rejected")
	// ErrDatabase is returned when storage failed; the detail is only logged.
	ErrDatabase = errors.New("database error")
	// ErrInternal is returned for any other infrastructure failure.
	ErrInternal = errors.New("internal error")
	// ErrSessionNotFound is returned when a session expired or was deleted.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized is returned for a missing or invalid session ticket.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated user lacks the role.
	ErrForbidden = errors.New("forbidden")
)

const genericAuthFailure = "invalid username or password"

// PublicMessage returns the text that may be shown to an end user for err.
// The three authentication failures share one message so that responses do
// not reveal whether a username exists.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "invalid input"
	case errors.Is(err, ErrDuplicateUsername):
		return "username is already taken"
	case errors.Is(err, ErrDuplicateEmail):
		return "email is already registered"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInactiveAccount):
		return genericAuthFailure
	case errors.Is(err, ErrCSRF):
		return "invalid or expired form token"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrUnauthorized):
		return "authentication required"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal error"
	}
}

// Classify returns a stable short code for err, used in audit events and
// metrics labels. Unknown errors classify as "internal".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive"
	case errors.Is(err, ErrCSRF):
		return "csrf"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrDatabase):
		return "database"
	case errors.Is(err, ErrEngineNotReady):
		return "engine_not_ready"
	default:
		return "internal"
	}
}
