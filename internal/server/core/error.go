package core

// Error codes
const (
	ErrClockNotFound       = "CLOCK_NOT_FOUND"
	ErrTimeControlNotFound = "TIME_CONTROL_NOT_FOUND"
	ErrInvalidTransition   = "INVALID_TRANSITION"
	ErrRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent      = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest      = "INVALID_REQUEST"
	ErrInternalError       = "INTERNAL_ERROR"
	ErrResourceLimit       = "RESOURCE_LIMIT"
)
