/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or transport failures both
internally and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: User and Message Business Logic Errors
const (
	// ErrMissingField indicates that a required field was absent or empty.
	ErrMissingField = 2001

	// ErrUnknownUser indicates that a message referenced a user id that does not exist.
	ErrUnknownUser = 2002

	// ErrUserNotFound indicates that the requested user record does not exist.
	ErrUserNotFound = 2003
)

// 3xxx: Push Channel Errors
const (
	// ErrMalformedEvent indicates that a push-channel payload could not be parsed.
	ErrMalformedEvent = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
