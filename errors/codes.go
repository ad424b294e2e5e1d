package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registry lifecycle errors.
const (
	// ErrCodeClientUnavailable indicates the registry client capability could
	// not be constructed. Fatal: aborts Start.
	ErrCodeClientUnavailable ErrorCode = "CLIENT_UNAVAILABLE"
	// ErrCodeRegistrationFailed indicates a registration attempt failed.
	ErrCodeRegistrationFailed ErrorCode = "REGISTRATION_FAILED"
	// ErrCodeDeregistrationFailed indicates a deregistration attempt failed.
	// Deregistration is best-effort: shutdown continues and the instance is
	// treated as unregistered regardless.
	ErrCodeDeregistrationFailed ErrorCode = "DEREGISTRATION_FAILED"
	// ErrCodeHeartbeatFailed indicates a heartbeat send failed.
	ErrCodeHeartbeatFailed ErrorCode = "HEARTBEAT_FAILED"
	// ErrCodeSelfHealingFailed indicates re-registration after sustained
	// heartbeat failure did not succeed.
	ErrCodeSelfHealingFailed ErrorCode = "SELF_HEALING_FAILED"
)

// Validation errors.
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors.
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRegistrationFailed:   true,
	ErrCodeDeregistrationFailed: true,
	ErrCodeHeartbeatFailed:      true,
	ErrCodeSelfHealingFailed:    true,
}

// IsRetryableCode reports whether an error code is retryable by policy.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
