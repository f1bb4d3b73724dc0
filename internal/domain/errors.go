package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. All are terminal for the triggering
// action and none are fatal to the process; the user simply retries.
var (
	// ErrMissingAPIKey means the provider credential is absent. Surfaced
	// immediately, never retried; features render as unavailable.
	ErrMissingAPIKey = fmt.Errorf("provider api key not configured")
	// ErrProviderError covers network, quota, and malformed-response
	// failures from the external backend.
	ErrProviderError = fmt.Errorf("provider error")
	// ErrSchemaMismatch means the provider returned unstructured text where
	// schema-conforming JSON was required.
	ErrSchemaMismatch = fmt.Errorf("structured output did not match schema")
	// ErrStreamActive means a new stream was started while another was
	// still in flight for the same conversation.
	ErrStreamActive = fmt.Errorf("stream already in flight")
	// ErrStreamSealed means a sealed assistant message was mutated.
	ErrStreamSealed = fmt.Errorf("message is sealed")
	// ErrAccessDenied means the premium access code did not verify.
	ErrAccessDenied = fmt.Errorf("access code rejected")
	// ErrFeatureLocked means a premium feature was used without unlock.
	ErrFeatureLocked = fmt.Errorf("feature requires premium access")
	// ErrInvalidInput means a caller-supplied value failed validation.
	ErrInvalidInput = fmt.Errorf("invalid input")

	// Transport-mapped sentinels for provider HTTP errors.
	ErrRateLimit       = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid     = fmt.Errorf("authentication failed")
	ErrContextOverflow = fmt.Errorf("context window exceeded")
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g. "chat.Send")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for logging and display.
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "UNKNOWN"
	CodeMissingAPIKey   ErrorCode = "MISSING_API_KEY"
	CodeProviderError   ErrorCode = "PROVIDER_ERROR"
	CodeSchemaMismatch  ErrorCode = "SCHEMA_MISMATCH"
	CodeStreamActive    ErrorCode = "STREAM_ACTIVE"
	CodeStreamSealed    ErrorCode = "STREAM_SEALED"
	CodeAccessDenied    ErrorCode = "ACCESS_DENIED"
	CodeFeatureLocked   ErrorCode = "FEATURE_LOCKED"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid     ErrorCode = "AUTH_INVALID"
	CodeContextOverflow ErrorCode = "CONTEXT_OVERFLOW"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrMissingAPIKey:   CodeMissingAPIKey,
	ErrProviderError:   CodeProviderError,
	ErrSchemaMismatch:  CodeSchemaMismatch,
	ErrStreamActive:    CodeStreamActive,
	ErrStreamSealed:    CodeStreamSealed,
	ErrAccessDenied:    CodeAccessDenied,
	ErrFeatureLocked:   CodeFeatureLocked,
	ErrInvalidInput:    CodeInvalidInput,
	ErrRateLimit:       CodeRateLimit,
	ErrAuthInvalid:     CodeAuthInvalid,
	ErrContextOverflow: CodeContextOverflow,
}

// ErrorCodeOf returns the machine-parseable code for the given error. It
// unwraps DomainError and walks the chain with errors.Is. Returns
// CodeUnknown when no sentinel matches.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}

	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}
