package errorx

import "net/http"

// CodedError is the structured error surface of the service: a stable
// machine-readable code plus the HTTP status it renders as.
type CodedError struct {
	Code              string `json:"code"`
	Status            int    `json:"-"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfter,omitempty"`
}

func (e *CodedError) Error() string { return e.Message }

var (
	// ErrBadRequest rejects malformed requests before any mutation.
	ErrBadRequest = &CodedError{
		Code:    "validation_failure",
		Status:  http.StatusBadRequest,
		Message: "malformed request",
	}

	// ErrInvalidAction rejects unknown action ids before any mutation.
	ErrInvalidAction = &CodedError{
		Code:    "invalid_action",
		Status:  http.StatusBadRequest,
		Message: "unknown action id",
	}

	// ErrUnauthorized rejects requests without a valid identity.
	ErrUnauthorized = &CodedError{
		Code:    "auth_failure",
		Status:  http.StatusUnauthorized,
		Message: "missing or invalid credentials",
	}

	// ErrRateLimited rejects requests over the per-user quota.
	ErrRateLimited = &CodedError{
		Code:              "rate_limited",
		Status:            http.StatusTooManyRequests,
		Message:           "too many actions, slow down",
		RetryAfterSeconds: 1,
	}

	// ErrBusy rejects an update that could not win the per-user
	// serialization slot within the bounded wait.
	ErrBusy = &CodedError{
		Code:              "busy",
		Status:            http.StatusTooManyRequests,
		Message:           "a concurrent update is in progress, retry",
		RetryAfterSeconds: 1,
	}

	// ErrStoreUnavailable reports an aborted update; nothing was
	// committed and the request is safe to retry.
	ErrStoreUnavailable = &CodedError{
		Code:              "store_unavailable",
		Status:            http.StatusServiceUnavailable,
		Message:           "score store unavailable, update aborted",
		RetryAfterSeconds: 5,
	}
)
